package stag

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetOrionLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orion/getOrionLoginByOsobniCislo", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("osCislo") {
		case "A21B0000P":
			fmt.Fprint(w, "novakj03\n")
		case "A21B0001P":
			fmt.Fprint(w, "")
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	login, err := client.GetOrionLogin(ctx, "A21B0000P")
	require.NoError(t, err)
	require.Equal(t, "novakj03", login)

	login, err = client.GetOrionLogin(ctx, "A21B0001P")
	require.NoError(t, err)
	require.Equal(t, UnknownLogin, login)

	_, err = client.GetOrionLogin(ctx, "missing")
	require.Error(t, err)
}
