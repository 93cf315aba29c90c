package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sebaB003/tpsx/pkg/tpsx"
	"github.com/sebaB003/tpsx/pkg/tpsx/graph"
	"github.com/sebaB003/tpsx/pkg/tpsx/predict"
	"github.com/sebaB003/tpsx/pkg/tpsx/store"
	"github.com/sebaB003/tpsx/pkg/tpsx/topics"
)

type topicDTO struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type relationDTO struct {
	A             string `json:"a"`
	B             string `json:"b"`
	Coexist       bool   `json:"coexist"`
	Bidirectional bool   `json:"bidirectional"`
	Text          string `json:"text"`
}

type relatedDTO struct {
	Topic   string `json:"topic"`
	Coexist bool   `json:"coexist"`
}

type resultDTO struct {
	Topic         string       `json:"topic"`
	Score         float64      `json:"score"`
	AdjustedScore float64      `json:"adjusted_score"`
	Tokens        []string     `json:"tokens"`
	Related       []relatedDTO `json:"related"`
}

type modelDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Language  string `json:"language"`
	CreatedAt string `json:"created_at"`
	Size      int    `json:"size"`
}

func toTopic(t topics.Topic) topicDTO {
	return topicDTO{ID: t.ID, Label: t.Label}
}

func toRelations(rels []graph.Relation) []relationDTO {
	out := make([]relationDTO, 0, len(rels))
	for _, r := range rels {
		out = append(out, relationDTO{
			A:             r.A,
			B:             r.B,
			Coexist:       r.Coexist,
			Bidirectional: r.Bidirectional,
			Text:          r.String(),
		})
	}
	return out
}

func toResult(r *predict.Result) resultDTO {
	dto := resultDTO{
		Topic:         r.Topic.Label,
		Score:         r.Score,
		AdjustedScore: r.AdjustedScore,
		Tokens:        make([]string, 0, len(r.Tokens)),
		Related:       make([]relatedDTO, 0, len(r.Related)),
	}
	for _, tok := range r.Tokens {
		dto.Tokens = append(dto.Tokens, tok.Label)
	}
	for _, rel := range r.Related {
		dto.Related = append(dto.Related, relatedDTO{Topic: rel.Result.Topic.Label, Coexist: rel.Coexist})
	}
	return dto
}

func toModel(m store.ModelInfo) modelDTO {
	return modelDTO{
		ID:        m.ID,
		Name:      m.Name,
		Language:  m.Language,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		Size:      m.Size,
	}
}

// GET /healthcheck
func (s *Server) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/topics
func (s *Server) ListTopics(c *gin.Context) {
	s.mu.RLock()
	all := s.engine.Topics()
	s.mu.RUnlock()

	out := make([]topicDTO, 0, len(all))
	for _, t := range all {
		out = append(out, toTopic(t))
	}
	RespondOK(c, gin.H{"topics": out})
}

type registerTopicRequest struct {
	Label string `json:"label"`
}

// POST /api/topics
func (s *Server) RegisterTopic(c *gin.Context) {
	var req registerTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	s.mu.Lock()
	created, err := s.engine.RegisterTopic(req.Label)
	topic, _ := s.engine.Topic(req.Label)
	s.mu.Unlock()
	if err != nil {
		respondEngineError(c, "register_topic_failed", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"topic": toTopic(topic), "created": created})
}

// GET /api/topics/:label/related
func (s *Server) RelatedOf(c *gin.Context) {
	s.mu.RLock()
	related, err := s.engine.RelatedOf(c.Param("label"))
	s.mu.RUnlock()
	if err != nil {
		respondEngineError(c, "related_failed", err)
		return
	}

	out := make([]relatedDTO, 0, len(related))
	for _, r := range related {
		out = append(out, relatedDTO{Topic: r.Topic, Coexist: r.Coexist})
	}
	RespondOK(c, gin.H{"related": out})
}

type trainRequest struct {
	Topics   []string `json:"topics"`
	Examples []string `json:"examples"`
	Tokens   []string `json:"tokens"`
}

// POST /api/train
func (s *Server) Train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	s.mu.Lock()
	var err error
	if len(req.Tokens) > 0 {
		err = s.engine.TrainTokens(req.Topics, req.Tokens)
	}
	if err == nil {
		err = s.engine.Train(req.Topics, req.Examples)
	}
	stats := s.engine.Stats()
	s.mu.Unlock()
	if err != nil {
		respondEngineError(c, "train_failed", err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

// GET /api/relations
func (s *Server) ListRelations(c *gin.Context) {
	s.mu.RLock()
	rels := s.engine.Relations()
	s.mu.RUnlock()
	RespondOK(c, gin.H{"relations": toRelations(rels)})
}

type relationsRequest struct {
	From          []string `json:"from"`
	To            []string `json:"to"`
	Coexist       bool     `json:"coexist"`
	Bidirectional bool     `json:"bidirectional"`
}

// POST /api/relations
func (s *Server) DeclareRelations(c *gin.Context) {
	var req relationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	s.mu.Lock()
	rels, err := s.engine.DeclareRelations(req.From, req.To, req.Coexist, req.Bidirectional)
	s.mu.Unlock()
	if err != nil {
		respondEngineError(c, "declare_relations_failed", err)
		return
	}
	RespondOK(c, gin.H{"relations": toRelations(rels)})
}

type predictRequest struct {
	Sentences []string `json:"sentences"`
	Tokens    []string `json:"tokens"`
	Merge     *bool    `json:"merge"`
}

// POST /api/predict
func (s *Server) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	merge := s.merge
	if req.Merge != nil {
		merge = *req.Merge
	}

	s.mu.RLock()
	var (
		results predict.Results
		err     error
	)
	if len(req.Tokens) > 0 {
		results, err = s.engine.PredictTokens(req.Tokens, merge)
	} else {
		results, err = s.engine.Predict(req.Sentences, merge)
	}
	s.mu.RUnlock()
	if err != nil {
		respondEngineError(c, "predict_failed", err)
		return
	}

	ranked := results.Ranked()
	out := make([]resultDTO, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, toResult(r))
	}
	RespondOK(c, gin.H{"results": out, "merge": merge})
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		RespondError(c, http.StatusNotImplemented, "store_disabled", fmt.Errorf("no model store configured"))
		return false
	}
	return true
}

// GET /api/models
func (s *Server) ListModels(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	models, err := s.store.ListModels(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondEngineError(c, "list_models_failed", err)
		return
	}
	out := make([]modelDTO, 0, len(models))
	for _, m := range models {
		out = append(out, toModel(m))
	}
	RespondOK(c, gin.H{"models": out})
}

type saveModelRequest struct {
	Name string `json:"name"`
}

// POST /api/models
func (s *Server) SaveModel(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	var req saveModelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	name := req.Name
	if name == "" {
		name = s.modelName
	}

	s.mu.RLock()
	data, err := s.engine.Save()
	lang := s.engine.Language()
	s.mu.RUnlock()
	if err != nil {
		respondEngineError(c, "save_model_failed", err)
		return
	}

	m := store.Model{Name: name, Language: string(lang), Data: data}
	id, err := s.store.SaveModel(c.Request.Context(), m)
	if err != nil {
		respondEngineError(c, "save_model_failed", err)
		return
	}
	saved, err := s.store.GetModel(c.Request.Context(), id)
	if err != nil {
		respondEngineError(c, "save_model_failed", err)
		return
	}
	s.log.Info("model saved", "id", id, "name", name, "bytes", len(data))
	c.JSON(http.StatusCreated, gin.H{"model": toModel(saved.Info())})
}

// POST /api/models/:id/load
func (s *Server) LoadModel(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	m, err := s.store.GetModel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondEngineError(c, "load_model_failed", err)
		return
	}

	e, err := tpsx.Load(m.Data, s.opts)
	if err != nil {
		respondEngineError(c, "load_model_failed", err)
		return
	}

	s.mu.Lock()
	s.engine = e
	s.mu.Unlock()

	s.log.Info("model loaded", "id", m.ID, "name", m.Name)
	RespondOK(c, gin.H{"model": toModel(m.Info()), "stats": e.Stats()})
}
