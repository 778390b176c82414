package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
)

type staticEmbedder struct{}

func (staticEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func TestEncodeVectorLiteral(t *testing.T) {
	got, err := encodeVectorLiteral([]float32{0.5, -1, 0})
	if err != nil {
		t.Fatalf("encodeVectorLiteral: %v", err)
	}
	if got != "[0.5,-1,0]" {
		t.Fatalf("unexpected literal %q", got)
	}
	if !strings.HasPrefix(got, "[") || !strings.HasSuffix(got, "]") {
		t.Fatalf("literal must be bracketed, got %q", got)
	}
}

func TestEncodeVectorLiteralEmpty(t *testing.T) {
	if _, err := encodeVectorLiteral(nil); err == nil {
		t.Fatal("expected error for empty vector")
	}
}

func TestInsertRejectsLengthMismatch(t *testing.T) {
	s := &Store{embedder: staticEmbedder{}, dims: 3}
	err := s.Insert(context.Background(), []string{"a", "b"}, []string{"id-1"}, []map[string]interface{}{nil, nil})
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(err.Error(), "length mismatch") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestInsertEmptyIsNoOp(t *testing.T) {
	s := &Store{embedder: staticEmbedder{}, dims: 3}
	if err := s.Insert(context.Background(), nil, nil, nil); err != nil {
		t.Fatalf("empty insert must be a no-op, got %v", err)
	}
}

// commitFailDriver accepts every statement but refuses to commit, standing
// in for a database that rolls the transaction back under the caller.
type commitFailDriver struct{}

func (commitFailDriver) Open(string) (driver.Conn, error) { return commitFailConn{}, nil }

type commitFailConn struct{}

func (commitFailConn) Prepare(string) (driver.Stmt, error) { return commitFailStmt{}, nil }
func (commitFailConn) Close() error                        { return nil }
func (commitFailConn) Begin() (driver.Tx, error)           { return commitFailTx{}, nil }

type commitFailStmt struct{}

func (commitFailStmt) Close() error  { return nil }
func (commitFailStmt) NumInput() int { return -1 }
func (commitFailStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}
func (commitFailStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("query not supported")
}

type commitFailTx struct{}

func (commitFailTx) Commit() error   { return errors.New("commit refused") }
func (commitFailTx) Rollback() error { return nil }

func init() {
	sql.Register("commitfail", commitFailDriver{})
}

func TestInsertSurfacesCommitFailure(t *testing.T) {
	db, err := sql.Open("commitfail", "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := &Store{DB: db, embedder: staticEmbedder{}, dims: 3, logger: log.New(io.Discard, "", 0)}
	err = s.Insert(context.Background(),
		[]string{"chunk text"},
		[]string{"id-1"},
		[]map[string]interface{}{{"source_type": "web"}},
	)
	if err == nil {
		t.Fatal("a failed commit must surface to the caller, or provenance gets registered without content")
	}
	if !strings.Contains(err.Error(), "commit refused") {
		t.Fatalf("expected the commit error, got %v", err)
	}
}

func TestQueryRejectsEmptyText(t *testing.T) {
	s := &Store{embedder: staticEmbedder{}, dims: 3}
	if _, err := s.Query(context.Background(), "   ", 5); err == nil {
		t.Fatal("expected error for blank query text")
	}
}

func TestDeleteBySourceTypeRequiresType(t *testing.T) {
	s := &Store{embedder: staticEmbedder{}, dims: 3}
	if err := s.DeleteBySourceType(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty source_type")
	}
}
