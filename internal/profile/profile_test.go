package profile

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolver_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/U:1:111":
			fmt.Fprint(w, `{"steamid":"U:1:111","personaname":"some player","game_bot":false,"account_age_days":1234}`)
		case "/U:1:222":
			fmt.Fprint(w, `{"steamid":"U:1:222","personaname":"a bot","game_bot":true}`)
		case "/U:1:broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	ctx := context.Background()

	p, err := r.Lookup(ctx, "U:1:111")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "U:1:111", p.SteamID)
	assert.Equal(t, "some player", p.PersonaName)
	assert.False(t, p.GameBot)
	assert.Equal(t, 1234, p.AccountAgeDays)

	p, err = r.Lookup(ctx, "U:1:222")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.GameBot)

	p, err = r.Lookup(ctx, "U:1:404")
	require.NoError(t, err)
	assert.Nil(t, p, "404 means no profile, not an error")

	_, err = r.Lookup(ctx, "U:1:broken")
	assert.Error(t, err)
}

func TestHTTPResolver_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Lookup(ctx, "U:1:1")
	assert.Error(t, err)
}

func TestFunc_Adapter(t *testing.T) {
	var got string
	f := Func(func(_ context.Context, steamid string) (*Profile, error) {
		got = steamid
		return &Profile{SteamID: steamid}, nil
	})

	p, err := f.Lookup(context.Background(), "U:1:9")
	require.NoError(t, err)
	assert.Equal(t, "U:1:9", got)
	assert.Equal(t, "U:1:9", p.SteamID)
}
