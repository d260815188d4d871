// This file is to handle things such as metrics/health and the current descriptor

package webapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DescriptorSource provides the descriptor served at /descriptor.  The
// returned descriptor must not be shared with other goroutines.
type DescriptorSource interface {
	Current() *mongoconnstr.Descriptor
}

type WebServerOptions struct {
	Logger        *zap.Logger
	ListenAddress string
	Descriptors   DescriptorSource
}

type WebServer struct {
	logger        *zap.Logger
	listenAddress string
	descriptors   DescriptorSource
	httpServer    *http.Server
}

func newWebServer(opts WebServerOptions) *WebServer {
	return &WebServer{
		logger:        opts.Logger,
		listenAddress: opts.ListenAddress,
		descriptors:   opts.Descriptors,
	}
}

type endpointJson struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Address string `json:"address"`
}

type keywordJson struct {
	Keyword string `json:"keyword"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`
}

// DescriptorJson is the redacted JSON view of a descriptor.
type DescriptorJson struct {
	ConnectionString string         `json:"connectionString"`
	Hosts            []endpointJson `json:"hosts"`
	Paired           bool           `json:"paired"`
	SlaveOk          bool           `json:"slaveOk"`
	UserID           string         `json:"userId,omitempty"`
	HasPassword      bool           `json:"hasPassword"`
	Keywords         []keywordJson  `json:"keywords"`
}

// NewDescriptorJson ensures d has a Host keyword before building the view.
func NewDescriptorJson(d *mongoconnstr.Descriptor) DescriptorJson {
	hosts := d.EnsureHost()

	out := DescriptorJson{
		ConnectionString: d.RedactedString(),
		Paired:           hosts.IsPaired(),
		SlaveOk:          d.SlaveOk(),
	}

	endpoints := hosts.Endpoints()
	if len(endpoints) == 0 {
		endpoints = append(endpoints, hosts.Left())
	}
	for _, endpoint := range endpoints {
		out.Hosts = append(out.Hosts, endpointJson{
			Host:    endpoint.Host,
			Port:    endpoint.Port,
			Address: endpoint.Address(),
		})
	}

	out.UserID, _ = d.UserID()
	_, out.HasPassword = d.Password()

	for _, e := range d.Entries() {
		value := e.Value.String()
		if mongoconnstr.IsPasswordKeyword(e.Keyword) {
			value = ""
		}

		out.Keywords = append(out.Keywords, keywordJson{
			Keyword: e.Keyword,
			Kind:    e.Value.Kind().String(),
			Value:   value,
		})
	}

	return out
}

func (w *WebServer) handleRoot(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(200)
	_, err := rw.Write([]byte("Welcome to the stellar connstr internal webapi"))
	if err != nil {
		w.logger.Debug("failed to write generic root response", zap.Error(err))
	}
}

func (w *WebServer) handleDescriptor(rw http.ResponseWriter, r *http.Request) {
	if w.descriptors == nil {
		http.Error(rw, "no descriptor source configured", http.StatusServiceUnavailable)
		return
	}

	body, err := json.Marshal(NewDescriptorJson(w.descriptors.Current()))
	if err != nil {
		w.logger.Warn("failed to marshal descriptor", zap.Error(err))
		http.Error(rw, "failed to marshal descriptor", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(200)
	_, err = rw.Write(body)
	if err != nil {
		w.logger.Debug("failed to write descriptor response", zap.Error(err))
	}
}

func (w *WebServer) Handler() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/descriptor", w.handleDescriptor).Methods(http.MethodGet)
	r.HandleFunc("/", w.handleRoot)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})

	return c.Handler(r)
}

func (w *WebServer) ListenAndServe() error {
	w.httpServer = &http.Server{
		Handler:      w.Handler(),
		Addr:         w.listenAddress,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return w.httpServer.ListenAndServe()
}

var globalWebLock sync.Mutex
var globalWebServer *WebServer = nil

func InitializeWebServer(opts WebServerOptions) {
	globalWebLock.Lock()
	if globalWebServer != nil {
		globalWebLock.Unlock()
		return
	}

	globalWebServer = newWebServer(opts)
	globalWebLock.Unlock()
	go func() {
		err := globalWebServer.ListenAndServe()
		if err != nil {
			opts.Logger.Error("Failed to listen and serve web server", zap.Error(err))
		}
	}()
}
