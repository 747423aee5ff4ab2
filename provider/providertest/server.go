// Package providertest runs a fake correctional-system provider for tests and demos.
package providertest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/insidebooks/ibpcheck/provider"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Server answers GET /inmates/:id and name searches on GET /inmates from an in-memory
// fixture set.
type Server struct {
	*httptest.Server

	mu      sync.RWMutex
	inmates map[string]provider.Inmate
	delay   time.Duration
	status  int

	calls    atomic.Int64
	searches atomic.Int64
}

func NewServer(inmates ...provider.Inmate) *Server {
	s := &Server{inmates: make(map[string]provider.Inmate)}
	for _, in := range inmates {
		s.inmates[types.NormalizeID(in.ID)] = in
	}

	e := echo.New()
	e.HideBanner = true
	e.GET("/inmates/:id", s.handleInmate)
	e.GET("/inmates", s.handleSearch)

	s.Server = httptest.NewServer(e)
	return s
}

func (s *Server) handleInmate(c echo.Context) error {
	s.calls.Add(1)

	s.mu.RLock()
	delay, status := s.delay, s.status
	in, ok := s.inmates[types.NormalizeID(c.Param("id"))]
	s.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request().Context().Done():
			return nil
		}
	}
	if status != 0 {
		return c.JSON(status, map[string]string{"error": http.StatusText(status)})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "inmate not found"})
	}
	return c.JSON(http.StatusOK, in)
}

func (s *Server) handleSearch(c echo.Context) error {
	s.searches.Add(1)

	first := strings.TrimSpace(c.QueryParam("first_name"))
	last := strings.TrimSpace(c.QueryParam("last_name"))
	if first == "" || last == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "first_name and last_name are required"})
	}

	s.mu.RLock()
	status := s.status
	var found []provider.Inmate
	for _, in := range s.inmates {
		rec := types.InmateRecord{FirstName: in.FirstName, LastName: in.LastName}
		if rec.MatchesName(first, last) {
			found = append(found, in)
		}
	}
	s.mu.RUnlock()

	if status != 0 {
		return c.JSON(status, map[string]string{"error": http.StatusText(status)})
	}
	if len(found) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no inmate matches"})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return c.JSON(http.StatusOK, found)
}

// Calls is how many lookups the server has received.
func (s *Server) Calls() int64 {
	return s.calls.Load()
}

// Searches is how many name searches the server has received.
func (s *Server) Searches() int64 {
	return s.searches.Load()
}

// SetDelay makes every answer wait d (or until the client gives up).
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// FailWith makes every answer use status. Zero restores normal answers.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Server) Put(in provider.Inmate) {
	s.mu.Lock()
	s.inmates[types.NormalizeID(in.ID)] = in
	s.mu.Unlock()
}

// Fixtures is the YAML layout of a fixture file:
//
//	inmates:
//	  - id: "01234567"
//	    jurisdiction: Texas
//	    first_name: John
//	    release: "2027-03-14"
type Fixtures struct {
	Inmates []provider.Inmate `yaml:"inmates"`
}

func ParseFixtures(r io.Reader) ([]provider.Inmate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read fixtures")
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode fixtures")
	}
	return f.Inmates, nil
}

func LoadFixtures(path string) ([]provider.Inmate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open fixtures")
	}
	defer file.Close()
	return ParseFixtures(file)
}
