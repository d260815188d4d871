package webapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct {
	connStr string
}

func (s staticSource) Current() *mongoconnstr.Descriptor {
	d, err := mongoconnstr.Parse(s.connStr)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestServer(t *testing.T, source DescriptorSource) *httptest.Server {
	w := newWebServer(WebServerOptions{
		Logger:      zap.NewNop(),
		Descriptors: source,
	})

	srv := httptest.NewServer(w.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestDescriptorEndpoint(t *testing.T) {
	srv := newTestServer(t, staticSource{
		connStr: "Host=a:1,b;User ID=u;Password=secret;SlaveOK=true",
	})

	resp, err := http.Get(srv.URL + "/descriptor")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body DescriptorJson
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "Host=a:1,b;User ID=u;Password=*****;SlaveOK=true", body.ConnectionString)
	assert.True(t, body.Paired)
	assert.True(t, body.SlaveOk)
	assert.Equal(t, "u", body.UserID)
	assert.True(t, body.HasPassword)

	require.Len(t, body.Hosts, 2)
	assert.Equal(t, endpointJson{Host: "a", Port: 1, Address: "a:1"}, body.Hosts[0])
	assert.Equal(t, endpointJson{Host: "b", Port: 27017, Address: "b:27017"}, body.Hosts[1])

	require.Len(t, body.Keywords, 4)
	assert.Equal(t, keywordJson{Keyword: "Host", Kind: "hosts", Value: "a:1,b"}, body.Keywords[0])
	assert.Equal(t, keywordJson{Keyword: "Password", Kind: "string", Value: ""}, body.Keywords[2])
}

func TestDescriptorEndpointDefaultHost(t *testing.T) {
	srv := newTestServer(t, staticSource{connStr: ""})

	resp, err := http.Get(srv.URL + "/descriptor")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body DescriptorJson
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "Host=localhost", body.ConnectionString)
	assert.False(t, body.Paired)
	require.Len(t, body.Hosts, 1)
	assert.Equal(t, "localhost:27017", body.Hosts[0].Address)
}

func TestDescriptorEndpointWithoutSource(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/descriptor")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRootAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDescriptorEndpointRedactsFoldedPassword(t *testing.T) {
	srv := newTestServer(t, staticSource{connStr: "Host=a;PAſſWORD=secret"})

	resp, err := http.Get(srv.URL + "/descriptor")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body DescriptorJson
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.True(t, body.HasPassword)
	assert.Equal(t, "Host=a;PAſſWORD=*****", body.ConnectionString)
	require.Len(t, body.Keywords, 2)
	assert.Equal(t, "", body.Keywords[1].Value)
}
