package diagnostic

// CandidateResolution is one possible way to resolve a detected ambiguity or
// conflict.
type CandidateResolution struct {
	Name              string
	Description       string
	RecommendedAction string
}

// ResolutionRequest is produced only when a failure is a recoverable
// ambiguity (DX4xxx class) or, per the orchestrator's commit-conflict
// handling in spec.md §4.6, when a commit conflict needs to enumerate the
// offending keys.
type ResolutionRequest struct {
	AmbiguousNodeID  string
	Candidates       []CandidateResolution
	RequiredPolicy   string
	HumanDescription string
}

// ForConflictingKeys builds the resolution request the orchestrator attaches
// to a synthesized system diagnostic when atomicCommit reports conflicts
// (spec.md §4.6 step 4, §8 scenario 5: "candidate Resolve:count").
func ForConflictingKeys(keys []string) *ResolutionRequest {
	candidates := make([]CandidateResolution, 0, len(keys))
	for _, k := range keys {
		candidates = append(candidates, CandidateResolution{
			Name:              "Resolve:" + k,
			Description:       "a later stage proposed a conflicting payload for key " + k,
			RecommendedAction: "review the stages that write " + k + " and make their payloads agree",
		})
	}
	return &ResolutionRequest{
		AmbiguousNodeID:  "commit-conflict",
		Candidates:       candidates,
		HumanDescription: "one or more keys could not be committed because a structurally different payload already exists",
	}
}

// ForSchemaConflict builds the resolution request for the monotonic
// knowledge scenario in spec.md §8: Stage A commits schemaVersion=v1, Stage
// B proposes schemaVersion=v2.
func ForSchemaConflict(key, existing, proposed string) *ResolutionRequest {
	return &ResolutionRequest{
		AmbiguousNodeID: key,
		Candidates: []CandidateResolution{
			{
				Name:              "Keep:" + existing,
				Description:       "retain the already-committed value " + existing,
				RecommendedAction: "drop the proposing stage's change to " + key,
			},
			{
				Name:              "Adopt:" + proposed,
				Description:       "adopt the newly proposed value " + proposed,
				RecommendedAction: "migrate earlier stages to produce " + proposed + " for " + key,
			},
		},
		RequiredPolicy:   "schema-version-resolution",
		HumanDescription: key + " was committed as " + existing + " and a later stage proposed " + proposed,
	}
}
