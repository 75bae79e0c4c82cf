package pgx

import (
	"errors"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"

	"github.com/google/uuid"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

func TestMapErr(t *testing.T) {
	if mapErr("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	if err := mapErr("get_node", pgxv5.ErrNoRows); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	dup := &pgconn.PgError{Code: "23505"}
	if err := mapErr("create_edge", dup); !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	other := errors.New("connection reset")
	err := mapErr("get_node", other)
	if !errors.Is(err, other) || common.KindOf(err) != nil {
		t.Fatalf("expected unclassified wrap, got %v", err)
	}
}

func TestRowsOrNotFound(t *testing.T) {
	if err := rowsOrNotFound("op", 0, nil); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := rowsOrNotFound("op", 1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToNodeCopiesEmbedding(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.5, 0.25})
	n := toNode(pgdb.Node{ID: uuid.New(), Kind: "CONCEPT", Weight: 3, Embedding: &vec})
	if !n.IsConcept() || n.Weight != 3 {
		t.Fatalf("unexpected node %+v", n)
	}
	if len(n.Embedding) != 2 || n.Embedding[1] != 0.25 {
		t.Fatalf("unexpected embedding %v", n.Embedding)
	}
	if toNode(pgdb.Node{}).Embedding != nil {
		t.Fatal("missing embedding must stay nil")
	}
	if vectorPtr(nil) != nil {
		t.Fatal("empty vector must map to NULL")
	}
}
