package devserver

import (
	"net/http"
	"strings"
)

const maxInjectSize = 512 * 1024

var injectedScript = `<script async src="` + RouteLiveReloadScript + `"></script>`

// injectLiveReload adds the client script to HTML pages served by next.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHTMLPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		in := &injector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(in, r)
		in.finalize()
	})
}

func isHTMLPath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}

// injector buffers an HTML response so the script can be placed before
// </body>. Non-HTML or oversized bodies pass through untouched.
type injector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	buffering     bool
	headerWritten bool
	passthrough   bool
}

func (in *injector) WriteHeader(code int) {
	in.statusCode = code
	if in.passthrough {
		in.ResponseWriter.WriteHeader(code)
		in.headerWritten = true
	}
}

func (in *injector) Write(data []byte) (int, error) {
	if !in.passthrough && !in.buffering {
		ct := in.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			in.startPassthrough()
			return in.ResponseWriter.Write(data)
		}
		in.buffering = true
	}
	if in.passthrough {
		return in.ResponseWriter.Write(data)
	}
	if len(in.buffer)+len(data) > maxInjectSize {
		in.startPassthrough()
		if len(in.buffer) > 0 {
			if _, err := in.ResponseWriter.Write(in.buffer); err != nil {
				return 0, err
			}
			in.buffer = nil
		}
		return in.ResponseWriter.Write(data)
	}
	in.buffer = append(in.buffer, data...)
	return len(data), nil
}

func (in *injector) startPassthrough() {
	in.passthrough = true
	in.Header().Del("Content-Length")
	in.ResponseWriter.WriteHeader(in.statusCode)
	in.headerWritten = true
}

// finalize writes the buffered page with the script injected.
func (in *injector) finalize() {
	if in.passthrough || len(in.buffer) == 0 {
		if !in.headerWritten {
			in.ResponseWriter.WriteHeader(in.statusCode)
		}
		return
	}
	page := string(in.buffer)
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		page = page[:i] + injectedScript + page[i:]
	} else {
		page += injectedScript
	}
	in.Header().Del("Content-Length")
	in.ResponseWriter.WriteHeader(in.statusCode)
	_, _ = in.ResponseWriter.Write([]byte(page))
}
