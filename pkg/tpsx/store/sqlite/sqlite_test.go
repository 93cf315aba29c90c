package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/store"
)

func openTemp(t *testing.T) (store.ModelStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.db")
	st, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return st, path
}

func TestSQLiteSaveGet(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)
	defer st.Close()

	created := time.Date(2024, 5, 2, 10, 30, 0, 123456789, time.UTC)
	id, err := st.SaveModel(ctx, store.Model{
		Name:      "zoo",
		Language:  "italian",
		CreatedAt: created,
		Data:      []byte("language: italian\n"),
	})
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	m, err := st.GetModel(ctx, id)
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if m.ID != id || m.Name != "zoo" || m.Language != "italian" {
		t.Errorf("GetModel = %+v", m)
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, created)
	}
	if string(m.Data) != "language: italian\n" {
		t.Errorf("Data = %q", m.Data)
	}

	if _, err := st.GetModel(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetModel(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteLatestListDelete(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)
	defer st.Close()

	var ids []string
	for _, payload := range []string{"v1", "v2", "v3"} {
		id, err := st.SaveModel(ctx, store.Model{Name: "zoo", Language: "italian", Data: []byte(payload)})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if _, err := st.SaveModel(ctx, store.Model{Name: "news", Language: "english", Data: []byte("n")}); err != nil {
		t.Fatal(err)
	}

	latest, err := st.LatestModel(ctx, "zoo")
	if err != nil {
		t.Fatalf("LatestModel: %v", err)
	}
	if string(latest.Data) != "v3" {
		t.Errorf("LatestModel data = %q, want v3", latest.Data)
	}

	list, err := st.ListModels(ctx, "zoo")
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListModels returned %d, want 3", len(list))
	}
	if list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Errorf("ListModels order = %v, want newest first", list)
	}
	if list[0].Size != 2 {
		t.Errorf("Size = %d, want 2", list[0].Size)
	}

	all, err := st.ListModels(ctx, "")
	if err != nil || len(all) != 4 {
		t.Errorf("ListModels(\"\") = %d models, %v", len(all), err)
	}

	if err := st.DeleteModel(ctx, ids[2]); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	latest, err = st.LatestModel(ctx, "zoo")
	if err != nil || string(latest.Data) != "v2" {
		t.Errorf("LatestModel after delete = %q, %v; want v2", latest.Data, err)
	}
	if err := st.DeleteModel(ctx, ids[2]); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("second DeleteModel error = %v, want ErrNotFound", err)
	}
	if _, err := st.LatestModel(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("LatestModel(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	st, path := openTemp(t)

	id, err := st.SaveModel(ctx, store.Model{Name: "zoo", Language: "italian", Data: []byte("persisted")})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	m, err := st.GetModel(ctx, id)
	if err != nil {
		t.Fatalf("GetModel after reopen: %v", err)
	}
	if string(m.Data) != "persisted" {
		t.Errorf("Data = %q", m.Data)
	}
}

func TestSQLiteRejectsInvalidModel(t *testing.T) {
	st, _ := openTemp(t)
	defer st.Close()

	if _, err := st.SaveModel(context.Background(), store.Model{Name: "zoo", Language: "italian"}); !errors.Is(err, internalerr.ErrInvalidArgument) {
		t.Errorf("SaveModel without data error = %v, want ErrInvalidArgument", err)
	}
}
