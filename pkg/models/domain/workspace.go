package domain

type Workspace struct {
	ID string
}

type WorkspaceDatasets struct {
	Workspace Workspace
	Datasets  []Dataset
}
