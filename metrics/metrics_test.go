package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveEncryptIncrementsCounter(t *testing.T) {
	ModulesEncrypted.Reset()
	ObserveEncrypt(ModuleDataPage)
	ObserveEncrypt(ModuleDataPage)

	require.Equal(t, float64(2), testutil.ToFloat64(ModulesEncrypted.WithLabelValues(string(ModuleDataPage))))
}

func TestObserveDecryptFailureIncrementsCounter(t *testing.T) {
	DecryptFailures.Reset()
	ObserveDecryptFailure(ModulePageHeader)

	require.Equal(t, float64(1), testutil.ToFloat64(DecryptFailures.WithLabelValues(string(ModulePageHeader))))
}
