package asset

// BatchDeleteRequest names the assets to retire in one call.
type BatchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

// FileFailure is the per-file entry of a rejected batch upload.
type FileFailure struct {
	File    string `json:"file"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RetireResult is the per-asset entry of a batch delete response.
type RetireResult struct {
	AssetID string `json:"asset_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func failuresToDTO(failures []*IngestError) []FileFailure {
	out := make([]FileFailure, 0, len(failures))
	for _, f := range failures {
		out = append(out, FileFailure{
			File:    f.File,
			Kind:    string(f.Kind),
			Message: f.Err.Error(),
		})
	}
	return out
}

func outcomesToDTO(outcomes []RetireOutcome) []RetireResult {
	out := make([]RetireResult, 0, len(outcomes))
	for _, o := range outcomes {
		r := RetireResult{AssetID: o.AssetID, Success: o.Succeeded()}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		out = append(out, r)
	}
	return out
}
