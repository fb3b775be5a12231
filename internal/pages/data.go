package pages

import (
	"html/template"
	"net/url"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/service"
)

// PostItem is one entry of a listing.
type PostItem struct {
	UID      string
	Href     string
	Title    string
	Subtitle string
	Author   string
	Date     string
	DateTime string
}

// ListingData drives listing.html. At most one of MoreAction (a form
// target) and MoreHref (a static link) is set, and only when another page
// exists.
type ListingData struct {
	Title      string
	Posts      []PostItem
	MoreAction string
	MoreHref   string
}

type PostData struct {
	Title     string
	Heading   string
	BannerURL string
	Author    string
	Date      string
	DateTime  string
	Minutes   int
	Blocks    []Block
}

type Block struct {
	Heading string
	HTML    template.HTML
}

type NotFoundData struct {
	Title string
}

type ErrorData struct {
	Title   string
	Heading string
	Message string
}

func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid)
}

// NewListing builds the data of a listing page.
func NewListing(title string, posts []domain.PostSummary) ListingData {
	return ListingData{Title: title, Posts: NewPostItems(posts)}
}

func NewPostItems(posts []domain.PostSummary) []PostItem {
	items := make([]PostItem, 0, len(posts))
	for _, p := range posts {
		item := PostItem{
			UID:      p.UID,
			Title:    p.Data.Title,
			Subtitle: p.Data.Subtitle,
			Author:   p.Data.Author,
			Date:     FormatDate(p.FirstPublicationDate),
			DateTime: DateTime(p.FirstPublicationDate),
		}
		if p.UID != "" {
			item.Href = PostPath(p.UID)
		}
		items = append(items, item)
	}
	return items
}

func NewPost(view *service.PostView) PostData {
	post := view.Post
	data := PostData{
		Title:     post.Data.Title,
		Heading:   post.Data.Title,
		BannerURL: post.Data.Banner.URL,
		Author:    post.Data.Author,
		Date:      FormatDate(post.FirstPublicationDate),
		DateTime:  DateTime(post.FirstPublicationDate),
		Minutes:   view.Reading.Minutes,
		Blocks:    make([]Block, 0, len(view.Blocks)),
	}

	for _, b := range view.Blocks {
		// block HTML is produced by the rich-text renderer, which escapes text
		data.Blocks = append(data.Blocks, Block{Heading: b.Heading, HTML: template.HTML(b.HTML)})
	}

	return data
}

func NotFound() NotFoundData {
	return NotFoundData{Title: "Post não encontrado"}
}

func Error(heading, message string) ErrorData {
	return ErrorData{Title: heading, Heading: heading, Message: message}
}
