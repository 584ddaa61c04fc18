package flash

import (
	"net/http"
	"sync"

	"github.com/dmitrijs2005/csemotors/internal/logging"
)

// Middleware loads pending messages into a fresh Queue for every request and
// persists whatever is left in it just before the response headers go out.
func Middleware(store Store, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("module", "flash")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seed, err := store.Load(r)
			if err != nil {
				logger.Warn(r.Context(), "discarding unreadable flash messages", "error", err)
				seed = nil
			}

			q := newLoadedQueue(seed)
			if err != nil {
				// force the broken entry to be cleared
				q.changed = true
			}

			sw := &savingWriter{ResponseWriter: w}
			sw.save = func() {
				msgs, changed := q.snapshot()
				if !changed {
					return
				}
				if err := store.Save(w, r, msgs); err != nil {
					logger.Error(r.Context(), "saving flash messages failed", "error", err)
				}
			}

			next.ServeHTTP(sw, r.WithContext(WithQueue(r.Context(), q)))
			sw.flush()
		})
	}
}

// savingWriter runs save exactly once, before the first header write.
type savingWriter struct {
	http.ResponseWriter
	once sync.Once
	save func()
}

func (w *savingWriter) flush() { w.once.Do(w.save) }

func (w *savingWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *savingWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *savingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
