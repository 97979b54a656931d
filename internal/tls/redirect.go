package tls

import (
	"net"
	"net/http"

	"shoppinglist/internal/logging"

	"github.com/sirupsen/logrus"
)

// RedirectHandler answers every plain HTTP request with a redirect to the
// same path on the HTTPS port. 308 keeps the method, so a POST that reaches
// the wrong port is replayed as a POST.
func RedirectHandler(httpsPort string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if httpsPort != "443" {
			host = net.JoinHostPort(host, httpsPort)
		}
		target := "https://" + host + r.URL.RequestURI()

		logging.Logger.WithFields(logrus.Fields{
			"client_ip": r.RemoteAddr,
			"method":    r.Method,
			"target":    target,
		}).Debug("Redirecting to HTTPS")

		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}
