package refresh

import "github.com/de-tools/pbi-refresh/pkg/models/domain"

// IsModelBased reports whether a dataset is a model that can be refreshed
// directly, i.e. it is not backed by a dataflow.
func IsModelBased(ds domain.Dataset) bool {
	return !ds.HasDataflow
}
