package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blocks/100":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"kind":"transfer","from":"wallet-1","to":"treasury","amount":250}`))
		case "/blocks/200":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"kind":"mint","to":"wallet-1","amount":500}`))
		case "/blocks/300":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second)
	ctx := context.Background()

	t.Run("returns a recorded transfer", func(t *testing.T) {
		block, err := client.QueryBlock(ctx, 100)
		require.NoError(t, err)
		assert.True(t, block.IsTransfer())
		assert.Equal(t, "treasury", block.To)
		assert.Equal(t, uint64(250), block.Amount)
	})

	t.Run("mints are not transfers", func(t *testing.T) {
		block, err := client.QueryBlock(ctx, 200)
		require.NoError(t, err)
		assert.False(t, block.IsTransfer())
	})

	t.Run("missing blocks error", func(t *testing.T) {
		_, err := client.QueryBlock(ctx, 999)
		assert.Error(t, err)
	})

	t.Run("malformed bodies error", func(t *testing.T) {
		_, err := client.QueryBlock(ctx, 300)
		assert.Error(t, err)
	})

	t.Run("unreachable ledger errors", func(t *testing.T) {
		dead := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
		_, err := dead.QueryBlock(ctx, 100)
		assert.Error(t, err)
	})
}
