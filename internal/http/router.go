package httpapi

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 promhttp 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

const vitalsPrefix = "/engine/api/v1/vitals/"

// RegisterVitalsRoutes 注册监护引擎路由
func (r *Router) RegisterVitalsRoutes(v *VitalsHandler) {
	// ingestion
	r.Handle(vitalsPrefix+"data", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		v.Ingest(w, req)
	})

	// latest/{patientId}
	r.Handle(vitalsPrefix+"latest/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, vitalsPrefix+"latest/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		v.GetLatest(w, req, id)
	})

	// ews-status/{patientId}
	r.Handle(vitalsPrefix+"ews-status/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, vitalsPrefix+"ews-status/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		v.GetEWSStatus(w, req, id)
	})

	// history/{patientId}?limit=50
	r.Handle(vitalsPrefix+"history/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, vitalsPrefix+"history/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		v.GetHistory(w, req, id)
	})

	// monitor/{patientId}/stop
	r.Handle(vitalsPrefix+"monitor/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, vitalsPrefix+"monitor/")
		id := strings.TrimSuffix(rest, "/stop")
		if id == "" || id == rest || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		v.StopMonitor(w, req, id)
	})
}

// RegisterOpsRoutes 注册健康检查与指标路由
func (r *Router) RegisterOpsRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.HandleHandler("/metrics", promhttp.Handler())
}
