package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebshareSourcePaginatesAndFiltersInvalid(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v2/proxy/list/", r.URL.Path)
		assert.Equal(t, "direct", r.URL.Query().Get("mode"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, `{"count":3,"next":"%s/api/v2/proxy/list/?mode=direct&page=2&page_size=100","results":[
				{"id":"p1","proxy_address":"1.1.1.1","port":8001,"username":"u1","password":"x","country_code":"US","city_name":"Austin","valid":true},
				{"id":"p2","proxy_address":"2.2.2.2","port":8002,"username":"u2","password":"x","country_code":"DE","valid":false}
			]}`, srv.URL)
		case "2":
			fmt.Fprint(w, `{"count":3,"next":null,"results":[
				{"id":"p3","proxy_address":"3.3.3.3","port":8003,"username":"u3","password":"x"}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewWebshareSource("secret", srv.URL+"/api/v2/")
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Credential{ID: "p1", Host: "1.1.1.1", Port: 8001, Username: "u1", Password: "x", CountryCode: "US", City: "Austin"}, got[0])
	assert.Equal(t, "p3", got[1].ID)
	assert.Equal(t, "Unknown", got[1].CountryCode)
	assert.Equal(t, "Unknown", got[1].City)
}

func TestWebshareSourceAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewWebshareSource("bad", srv.URL).Load(context.Background())
	require.ErrorIs(t, err, ErrDirectoryAuth)

	_, err = NewWebshareSource("", srv.URL).Load(context.Background())
	require.ErrorIs(t, err, ErrDirectoryAuth)
}

func TestWebshareSourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewWebshareSource("k", srv.URL).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestStaticSource(t *testing.T) {
	got, err := StaticSource{Credential: Credential{Host: "proxy.local", Port: 3128}}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = StaticSource{}.Load(context.Background())
	require.Error(t, err)
}

func TestRotatingSourceNumbersUsernames(t *testing.T) {
	src := RotatingSource{Host: "p.webshare.io", Port: 80, Username: "abcd-rotate-7", Password: "pw", Count: 3}
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, fmt.Sprintf("abcd-rotate-%d", i+1), c.Username)
		assert.Equal(t, "pw", c.Password)
		assert.Equal(t, "http://abcd-rotate-"+fmt.Sprint(i+1)+":pw@p.webshare.io:80", c.URL().String())
	}

	def, err := RotatingSource{Host: "h", Port: 1, Username: "user"}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, def, 10)
}

func TestBaseUsername(t *testing.T) {
	cases := map[string]string{
		"user-12":     "user",
		"user-rotate": "user-rotate",
		"a-b-3":       "a-b",
		"plain":       "plain",
		"-5":          "-5",
		"trailing-":   "trailing-",
		"user-+5":     "user-+5",
	}
	for in, want := range cases {
		assert.Equal(t, want, BaseUsername(in), in)
	}
}

func TestFileSourceFormats(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) *FileSource {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return NewFileSource(p)
	}

	arr, err := write("a.json", `[{"host":"1.2.3.4","port":80,"country_code":"FR"}]`).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, arr, 1)
	assert.Equal(t, "FR", arr[0].CountryCode)

	obj, err := write("b.json", `{"proxies":[{"host":"5.6.7.8","port":81}],"last_fetch":"2024-01-01T00:00:00Z"}`).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, obj, 1)

	lines, err := write("c.txt", "# exported\n9.9.9.9:3128:alice:pw\n8.8.8.8:8080\n\n").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "alice", lines[0].Username)
	assert.Equal(t, 8080, lines[1].Port)

	_, err = write("d.txt", "host-only\n").Load(context.Background())
	require.Error(t, err)

	_, err = NewFileSource(filepath.Join(dir, "missing.json")).Load(context.Background())
	require.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	assert.Nil(t, NewSnapshotStore(""))
	var nilStore *SnapshotStore
	require.NoError(t, nilStore.Save(creds("A"), time.Now()))
	_, _, err := nilStore.Load()
	require.ErrorIs(t, err, os.ErrNotExist)

	store := NewSnapshotStore(filepath.Join(t.TempDir(), "nested", "snap.json"))
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, store.Save(creds("A", "B"), at))
	got, fetched, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, creds("A", "B"), got)
	assert.True(t, at.Equal(fetched))
}

func TestCredentialRendering(t *testing.T) {
	c := Credential{Host: "h", Port: 1, Username: "u", Password: "p@ss"}
	assert.Equal(t, "http://u:p%40ss@h:1", c.URL().String())
	assert.Equal(t, "u@h:1", c.Redacted())
	assert.Equal(t, "direct", Credential{}.Redacted())
	assert.True(t, Credential{}.IsZero())
	assert.Equal(t, "http://h:1", Credential{Host: "h", Port: 1}.URL().String())
}

func TestWatchFileTriggersRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	require.NoError(t, os.WriteFile(path, []byte("1.1.1.1:80\n"), 0o600))

	pool, err := NewPool(Options{Source: NewFileSource(path)})
	require.NoError(t, err)
	require.NoError(t, pool.Refresh(context.Background(), true))
	require.Equal(t, 1, pool.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, WatchFile(ctx, pool, path))

	require.NoError(t, os.WriteFile(path, []byte("1.1.1.1:80\n2.2.2.2:80\n3.3.3.3:80\n"), 0o600))
	require.Eventually(t, func() bool { return pool.Len() == 3 }, 5*time.Second, 50*time.Millisecond)
}
