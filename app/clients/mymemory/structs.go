package mymemory

// TranslationResult is the best translation chosen by the API
type TranslationResult struct {
	Text  string  `json:"translatedText"`
	Match float64 `json:"match"`
}

// TranslationMatch is a translation memory record matching the query
type TranslationMatch struct {
	ID          string  `json:"id"`
	Segment     string  `json:"segment"`
	Translation string  `json:"translation"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Quality     string  `json:"quality"`
	Reference   *string `json:"reference"`
	UsageCount  int     `json:"usage-count"`
	Subject     string  `json:"subject"`
	Match       float64 `json:"match"`
}

// TranslationResponse is a response of the /get endpoint
type TranslationResponse struct {
	Result          TranslationResult  `json:"responseData"`
	Matches         []TranslationMatch `json:"matches"`
	QuotaFinished   bool               `json:"quotaFinished"`
	ResponseDetails string             `json:"responseDetails"`
	ResponseStatus  int                `json:"responseStatus"`
	ResponderID     string             `json:"responderId"`
	ExceptionCode   *string            `json:"exception_code"`
}

// Alternatives returns distinct match translations other than the best one
func (r TranslationResponse) Alternatives() []string {
	seen := map[string]bool{r.Result.Text: true}
	res := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		if m.Translation == "" || seen[m.Translation] {
			continue
		}
		seen[m.Translation] = true
		res = append(res, m.Translation)
	}
	return res
}
