package prismic

import "encoding/json"

// APIResponse is the repository description returned by the API entry point.
type APIResponse struct {
	Refs []Ref `json:"refs"`
}

type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// SearchResponse is one page of a documents search.
type SearchResponse struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

type Document struct {
	ID                   string          `json:"id"`
	UID                  *string         `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

type summaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

type detailData struct {
	Title  string `json:"title"`
	Banner struct {
		URL string `json:"url"`
	} `json:"banner"`
	Author  string         `json:"author"`
	Content []contentGroup `json:"content"`
}

type contentGroup struct {
	Heading string          `json:"heading"`
	Body    []richTextBlock `json:"body"`
}

type richTextBlock struct {
	Type  string     `json:"type"`
	Text  string     `json:"text"`
	Spans []spanJSON `json:"spans"`
	URL   string     `json:"url"`
	Alt   string     `json:"alt"`
}

type spanJSON struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Data  *struct {
		URL    string `json:"url"`
		Label  string `json:"label"`
		Target string `json:"target"`
	} `json:"data"`
}
