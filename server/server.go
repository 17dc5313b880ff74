package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"listings-service/services"
	"listings-service/storage"
)

// Server is the read-only HTTP API over the listings store.
type Server struct {
	store  storage.ReadStore
	sorter *services.OfferSorter
	logger *logrus.Logger
	http   *http.Server
}

// New builds the router and returns a Server ready to Run.
func New(addr string, store storage.ReadStore, logger *logrus.Logger) *Server {
	s := &Server{
		store:  store,
		sorter: services.NewOfferSorter(),
		logger: logger,
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           cors.Default().Handler(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/hello", s.handleHello).Methods(http.MethodGet)
	r.HandleFunc("/hello/{name}", s.handleHello).Methods(http.MethodGet)
	r.HandleFunc("/listings/filter", s.handleFilterListings).Methods(http.MethodGet)
	r.HandleFunc("/listings/autocomplete", s.handleAutocomplete).Methods(http.MethodGet)
	r.HandleFunc("/offers", s.handleOffers).Methods(http.MethodGet)
	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Errorf("[server] shutdown: %v", err)
		}
	}()

	s.logger.Infof("[server] listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
