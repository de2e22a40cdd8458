package dashboard

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"healthdash/warehouse"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server serves the dashboard pages.
type Server struct {
	dispatcher *Dispatcher
	metrics    *Metrics
	log        *zap.Logger
}

// NewServer wires the HTTP surface. metrics may be nil.
func NewServer(d *Dispatcher, metrics *Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{dispatcher: d, metrics: metrics, log: log}
}

// Routes returns the dashboard router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.overview)
	r.Get("/schema", s.schema)
	r.Get("/kpis", s.kpis)
	r.Get("/aggregations", s.aggregations)
	r.Get("/visualizations", s.visualizations)
	r.Get("/datamarts", s.dataMarts)
	r.Get("/export/{selection}.xlsx", s.export)

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusNotFound, errorPage(http.StatusNotFound, "No page at "+r.URL.Path))
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) overview(w http.ResponseWriter, _ *http.Request) {
	s.metrics.pageView(ViewOverview)
	render(w, http.StatusOK, overviewPage())
}

func (s *Server) schema(w http.ResponseWriter, _ *http.Request) {
	s.metrics.pageView(ViewSchema)
	render(w, http.StatusOK, schemaPage())
}

func (s *Server) kpis(w http.ResponseWriter, r *http.Request) {
	s.metrics.pageView(ViewKPIs)
	ctx := r.Context()

	revenueOpts := selectionsFor(ViewKPIs, BarChart)
	visitsOpts := selectionsFor(ViewKPIs, PieChart)
	revenue, ok := chosen(r, "revenue", revenueOpts)
	if !ok {
		s.badSelection(w, "revenue")
		return
	}
	visits, ok := chosen(r, "visits", visitsOpts)
	if !ok {
		s.badSelection(w, "visits")
		return
	}

	var metrics []Panel
	for _, sel := range selectionsFor(ViewKPIs, CurrencyMetric, CountMetric) {
		metrics = append(metrics, s.dispatcher.Dispatch(ctx, sel))
	}

	render(w, http.StatusOK, kpiPage(metrics,
		revenueOpts, s.dispatcher.Dispatch(ctx, revenue),
		visitsOpts, s.dispatcher.Dispatch(ctx, visits),
	))
}

func (s *Server) aggregations(w http.ResponseWriter, r *http.Request) {
	s.selectionView(w, r, ViewAggregations, "Aggregations", "Select Aggregation")
}

func (s *Server) visualizations(w http.ResponseWriter, r *http.Request) {
	s.selectionView(w, r, ViewVisualizations, "Data Visualizations", "Select Visualization")
}

func (s *Server) dataMarts(w http.ResponseWriter, r *http.Request) {
	s.selectionView(w, r, ViewDataMarts, "Data Marts", "Select Data Mart")
}

func (s *Server) selectionView(w http.ResponseWriter, r *http.Request, v View, title, prompt string) {
	s.metrics.pageView(v)
	opts := selectionsFor(v, TableTreatment, BarChart, PieChart, MartPanel)
	sel, ok := chosen(r, "q", opts)
	if !ok {
		s.badSelection(w, "q")
		return
	}
	order, ok := sortOrder(r, v, sel)
	if !ok {
		s.badSelection(w, "sort")
		return
	}

	p := s.dispatcher.Dispatch(r.Context(), sel)
	if order != nil && order.column != "" && p.Table != nil {
		p.Table = p.Table.SortBy(order.column, order.desc)
	}
	render(w, http.StatusOK, selectionPage(v, title, prompt, opts, p, order))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	sel, ok := ParseSelection(chi.URLParam(r, "selection"))
	if !ok {
		render(w, http.StatusNotFound, errorPage(http.StatusNotFound, "Unknown selection"))
		return
	}

	p := s.dispatcher.Dispatch(r.Context(), sel)
	if p.Failed() {
		render(w, http.StatusBadGateway, errorPage(http.StatusBadGateway, "Could not load "+p.Title+": "+p.Err.Error()))
		return
	}
	data, err := exportWorkbook(p.Title, p.Result)
	if err != nil {
		s.log.Error("export failed", zap.String("selection", sel.Slug()), zap.Error(err))
		render(w, http.StatusInternalServerError, errorPage(http.StatusInternalServerError, "Export failed"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sel.Slug()+`.xlsx"`)
	_, _ = w.Write(data)
}

func (s *Server) badSelection(w http.ResponseWriter, param string) {
	render(w, http.StatusBadRequest, errorPage(http.StatusBadRequest, "Unknown value for "+param))
}

// chosen resolves the selection named by query parameter param, defaulting to
// the first option. A value outside opts is rejected.
func chosen(r *http.Request, param string, opts []Selection) (Selection, bool) {
	slug := strings.TrimSpace(r.URL.Query().Get(param))
	if slug == "" {
		return opts[0], true
	}
	for _, s := range opts {
		if s.Slug() == slug {
			return s, true
		}
	}
	return 0, false
}

// tableSort is the row order requested for a table panel.
type tableSort struct {
	base   string // view path with the selection, without sort parameters
	column string
	desc   bool
}

// sortOrder reads the sort and dir parameters for a table selection. Other
// treatments are not sortable and yield nil. A column outside the query's
// declared columns or an unknown direction is rejected.
func sortOrder(r *http.Request, v View, sel Selection) (*tableSort, bool) {
	name, treatment, ok := route(sel)
	if !ok || treatment != TableTreatment {
		return nil, true
	}
	q, ok := warehouse.Lookup(name)
	if !ok {
		return nil, true
	}

	order := &tableSort{base: v.Path() + "?q=" + url.QueryEscape(sel.Slug())}
	params := r.URL.Query()
	col := strings.TrimSpace(params.Get("sort"))
	if col == "" {
		return order, true
	}
	if !slices.Contains(q.Columns, col) {
		return nil, false
	}
	switch params.Get("dir") {
	case "", "asc":
	case "desc":
		order.desc = true
	default:
		return nil, false
	}
	order.column = col
	return order, true
}
