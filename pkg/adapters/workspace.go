package adapters

import (
	"github.com/de-tools/pbi-refresh/pkg/models/api"
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
)

func MapDomainWsToAPIWs(ws domain.Workspace) api.Workspace {
	return api.Workspace{ID: ws.ID}
}
