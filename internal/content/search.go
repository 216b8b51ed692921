package content

// Hit kinds returned by Search.
const (
	KindPage     = "page"
	KindIssue    = "issue"
	KindEndpoint = "endpoint"
	KindFeature  = "feature"
)

// Hit is one search result.
type Hit struct {
	Kind    string `json:"kind"`
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Search matches a case-insensitive regular expression against guides,
// troubleshooting entries, endpoints and features.
func (l *Library) Search(pattern string) ([]Hit, error) {
	var hits []Hit

	add := func(hit Hit, texts ...string) error {
		ok, err := matchAny(pattern, texts)
		if err != nil {
			return err
		}
		if ok {
			hits = append(hits, hit)
		}
		return nil
	}

	for _, p := range l.Hub.Pages {
		texts := append([]string{p.Title, p.Description}, p.Topics...)
		for _, s := range p.Sections {
			texts = append(texts, s.Heading, s.Body)
		}
		if err := add(Hit{Kind: KindPage, Ref: p.Slug, Title: p.Title, Summary: p.Description}, texts...); err != nil {
			return nil, err
		}
	}

	issues, err := l.Issues("", pattern)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		hits = append(hits, Hit{Kind: KindIssue, Ref: issue.Category, Title: issue.Title, Summary: issue.Problem})
	}

	for _, e := range l.Endpoints {
		ref := e.Method + " " + e.Path
		if err := add(Hit{Kind: KindEndpoint, Ref: ref, Title: ref, Summary: e.Description}, e.Path, e.Description, e.Group); err != nil {
			return nil, err
		}
	}

	for _, f := range l.Features.All() {
		if err := add(Hit{Kind: KindFeature, Ref: f.Name, Title: f.Name, Summary: f.Description}, f.Name, f.Description); err != nil {
			return nil, err
		}
	}

	return hits, nil
}
