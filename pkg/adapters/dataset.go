package adapters

import (
	"github.com/de-tools/pbi-refresh/pkg/models/api"
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/models/store"
)

func MapStoreDatasetToDomain(workspaceID string, ds store.Dataset) domain.Dataset {
	return domain.Dataset{
		ID:            ds.ID,
		Name:          ds.Name,
		WorkspaceID:   workspaceID,
		ConfiguredBy:  ds.ConfiguredBy,
		IsRefreshable: ds.IsRefreshable,
		HasDataflow:   ds.Dataflow != nil,
	}
}

func MapStoreRefreshToDomain(r store.Refresh) domain.RefreshRecord {
	return domain.RefreshRecord{
		Status:  domain.RefreshStatus(r.Status),
		EndTime: r.EndTime,
	}
}

func MapDomainDatasetToAPI(ds domain.Dataset, modelBased bool) api.Dataset {
	return api.Dataset{
		ID:          ds.ID,
		Name:        ds.Name,
		WorkspaceID: ds.WorkspaceID,
		ModelBased:  modelBased,
	}
}
