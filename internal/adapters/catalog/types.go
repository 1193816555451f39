package catalog

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	perr "propwatch/internal/platform/errors"

	"propwatch/internal/core/market"
	"propwatch/internal/core/slug"
)

// StatusError wraps non-2xx responses from the search API
type StatusError struct {
	Status int
	Body   string
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

// IsRateLimited reports whether err is a StatusError with 429 status
func IsRateLimited(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == 429
	}
	return false
}

// IsTransient reports whether err is a StatusError with a 5xx status
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 && se.Status <= 599
	}
	return false
}

type searchRequest struct {
	Requests []searchQuery `json:"requests"`
}

type searchQuery struct {
	IndexName string `json:"indexName"`
	Query     string `json:"query"`
	Params    string `json:"params"`
}

type searchResponse struct {
	Results []Page `json:"results"`
}

// Page is one decoded result page
type Page struct {
	Hits        []Hit `json:"hits"`
	NbHits      int   `json:"nbHits"`
	PageNum     int   `json:"page"`
	NbPages     int   `json:"nbPages"`
	HitsPerPage int   `json:"hitsPerPage"`
}

// decodePage unwraps the multi-query envelope; we always send one request
func decodePage(raw []byte) (Page, error) {
	var sr searchResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return Page{}, perr.Wrapf(err, perr.ErrorCodeJSON, "catalog decode search response")
	}
	if len(sr.Results) == 0 {
		return Page{}, perr.Newf(perr.ErrorCodeJSON, "catalog search response carries no results")
	}
	return sr.Results[0], nil
}

// Hit is one raw listing as the search index returns it
type Hit struct {
	ExternalID   string        `json:"externalID"`
	ObjectID     string        `json:"objectID"`
	Title        string        `json:"title"`
	TitleL1      string        `json:"title_l1"`
	Category     categoryField `json:"category"`
	Purpose      string        `json:"purpose"`
	Price        float64       `json:"price"`
	HidePrice    bool          `json:"hidePrice"`
	RentFreq     string        `json:"rentFrequency"`
	Rooms        int           `json:"rooms"`
	Baths        int           `json:"baths"`
	Area         float64       `json:"area"`
	Agency       agencyField   `json:"agency"`
	ContactName  string        `json:"contactName"`
	PermitNumber string        `json:"permitNumber"`
	ReferenceNum string        `json:"referenceNumber"`
	IsVerified   bool          `json:"isVerified"`
	Slug         string        `json:"slug"`
	Location     []locationRef `json:"location"`
	CreatedAt    float64       `json:"createdAt"`
	UpdatedAt    float64       `json:"updatedAt"`
}

type locationRef struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
}

// categoryField tolerates both shapes the index ships: a plain slug string
// or a hierarchy array whose last entry is the concrete category
type categoryField struct {
	Slug string
}

func (c *categoryField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		c.Slug = s
		return nil
	}
	var arr []struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) > 0 {
		last := arr[len(arr)-1]
		if last.Slug != "" {
			c.Slug = last.Slug
		} else {
			c.Slug = slug.Make(last.Name)
		}
	}
	return nil
}

// agencyField tolerates a bare agency name or an object with name and slug
type agencyField struct {
	Name string
	Slug string
}

func (a *agencyField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	a.Name = obj.Name
	a.Slug = obj.Slug
	return nil
}

// MapHit turns a raw hit into the domain listing for one location capture.
// Zero prices stay zero; the diff layer treats them as data-quality holes,
// not as crashes
func MapHit(h Hit, locationSlug, currency, siteURL string, capturedAt time.Time) market.Listing {
	id := h.ExternalID
	if id == "" {
		id = h.ObjectID
	}

	agencySlug := h.Agency.Slug
	if agencySlug == "" && h.Agency.Name != "" {
		agencySlug = slug.Make(h.Agency.Name)
	}

	var u string
	if h.Slug != "" {
		u = strings.TrimSuffix(siteURL, "/") + "/" + strings.TrimPrefix(h.Slug, "/")
	}

	price := int64(0)
	if !h.HidePrice && h.Price > 0 {
		price = int64(math.Round(h.Price))
	}

	return market.Listing{
		ExternalID:   id,
		LocationSlug: locationSlug,
		Title:        h.Title,
		Price:        price,
		Currency:     currency,
		Rooms:        h.Rooms,
		Baths:        h.Baths,
		AreaSqm:      h.Area,
		Category:     h.Category.Slug,
		Purpose:      h.Purpose,
		Verified:     h.IsVerified,
		PermitNumber: h.PermitNumber,
		AgencyName:   h.Agency.Name,
		AgencySlug:   agencySlug,
		AgentName:    h.ContactName,
		URL:          u,
		CapturedAt:   capturedAt,
	}
}
