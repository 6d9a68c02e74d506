package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Users      *UserHandler
	Decisions  *DecisionHandler
	Requests   *RequestHandler
	Audits     *AuditHandler
	Health     *HealthHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	if cfg.Users != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.Create(w, r)
		})
	}

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		id, resource, ok := splitUserPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithUserID(r.Context(), id))

		switch resource {
		case "preferences":
			if cfg.Users == nil {
				break
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Users.GetPreferences(w, r)
			case http.MethodPut:
				cfg.Users.UpdatePreferences(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
			return
		case "decisions", "decisions/voice":
			if cfg.Decisions == nil {
				break
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			if resource == "decisions" {
				cfg.Decisions.Decide(w, r)
			} else {
				cfg.Decisions.DecideVoice(w, r)
			}
			return
		case "requests":
			if cfg.Requests == nil {
				break
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Requests.Window(w, r)
			case http.MethodDelete:
				cfg.Requests.Purge(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
			return
		case "requests/today", "requests/latest":
			if cfg.Requests == nil {
				break
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			if resource == "requests/today" {
				cfg.Requests.Today(w, r)
			} else {
				cfg.Requests.Latest(w, r)
			}
			return
		case "audits":
			if cfg.Audits == nil {
				break
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Audits.Create(w, r)
			return
		}
		http.NotFound(w, r)
	})

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// splitUserPath splits "/users/{id}/{resource...}" into its parts.
func splitUserPath(path string) (id, resource string, ok bool) {
	rest := strings.Trim(strings.TrimPrefix(path, "/users/"), "/")
	id, resource, found := strings.Cut(rest, "/")
	if !found || id == "" || resource == "" {
		return "", "", false
	}
	return id, resource, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
