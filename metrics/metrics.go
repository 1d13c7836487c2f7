// Package metrics exposes Prometheus counters for module encryption and
// decryption activity, for callers that want visibility into per-file
// crypto throughput without threading counters through every call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ModuleKind labels which kind of module a counter observation refers to.
type ModuleKind string

const (
	ModuleFooter         ModuleKind = "footer"
	ModuleColumnMetaData ModuleKind = "column_metadata"
	ModuleDataPage       ModuleKind = "data_page"
	ModuleDictionaryPage ModuleKind = "dictionary_page"
	ModulePageHeader     ModuleKind = "page_header"
)

var (
	// ModulesEncrypted counts successfully encrypted modules, by kind.
	ModulesEncrypted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pqcrypto",
		Name:      "modules_encrypted_total",
		Help:      "Number of modules successfully encrypted, by module kind.",
	}, []string{"module"})

	// ModulesDecrypted counts successfully decrypted modules, by kind.
	ModulesDecrypted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pqcrypto",
		Name:      "modules_decrypted_total",
		Help:      "Number of modules successfully decrypted, by module kind.",
	}, []string{"module"})

	// DecryptFailures counts decrypt attempts that failed authentication
	// or framing, by kind.
	DecryptFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pqcrypto",
		Name:      "decrypt_failures_total",
		Help:      "Number of module decrypt attempts that failed, by module kind.",
	}, []string{"module"})

	// KeyUnavailableTotal counts column key resolution failures.
	KeyUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pqcrypto",
		Name:      "key_unavailable_total",
		Help:      "Number of column key resolutions that failed with KeyUnavailable.",
	})
)

// MustRegister registers all of this package's collectors with reg. Panics
// on a duplicate registration, matching prometheus.MustRegister's contract.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(ModulesEncrypted, ModulesDecrypted, DecryptFailures, KeyUnavailableTotal)
}

// ObserveEncrypt records a successful encryption of a module of kind.
func ObserveEncrypt(kind ModuleKind) {
	ModulesEncrypted.WithLabelValues(string(kind)).Inc()
}

// ObserveDecrypt records a successful decryption of a module of kind.
func ObserveDecrypt(kind ModuleKind) {
	ModulesDecrypted.WithLabelValues(string(kind)).Inc()
}

// ObserveDecryptFailure records a failed decryption of a module of kind.
func ObserveDecryptFailure(kind ModuleKind) {
	DecryptFailures.WithLabelValues(string(kind)).Inc()
}
