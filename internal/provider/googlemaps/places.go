package googlemaps

import (
	"context"

	"googlemaps.github.io/maps"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/obs"
	"github.com/tripost/backend/internal/places"
)

// Suggest implements places.Suggester with Place Autocomplete, which returns
// structured main/secondary text. The API takes a single type; the first
// type it understands is used.
func (c *Client) Suggest(ctx context.Context, q places.Query) (_ []domain.Suggestion, err error) {
	defer obs.Time(ctx, c.log, "googlemaps.Suggest")(&err)

	req := &maps.PlaceAutocompleteRequest{
		Input:    q.Text,
		Language: or(q.Language, c.cfg.Language),
	}
	for _, t := range q.Types {
		if pt, perr := maps.ParseAutocompletePlaceType(t); perr == nil {
			req.Types = pt
			break
		}
	}
	if region := or(q.Region, c.cfg.Region); region != "" {
		req.Components = map[maps.Component][]string{maps.ComponentCountry: {region}}
	}

	resp, err := c.maps.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, translate("Suggest", err)
	}
	return predictions(resp), nil
}

// Legacy returns the Query Autocomplete suggester used as the fallback.
func (c *Client) Legacy() places.Suggester {
	return legacy{c}
}

type legacy struct{ c *Client }

func (l legacy) Available() bool {
	return l.c.Available()
}

// Suggest implements places.Suggester. Query Autocomplete has no type or
// region filter, so those fields of q are ignored.
func (l legacy) Suggest(ctx context.Context, q places.Query) (_ []domain.Suggestion, err error) {
	defer obs.Time(ctx, l.c.log, "googlemaps.LegacySuggest")(&err)

	resp, err := l.c.maps.QueryAutocomplete(ctx, &maps.QueryAutocompleteRequest{
		Input:    q.Text,
		Language: or(q.Language, l.c.cfg.Language),
	})
	if err != nil {
		return nil, translate("LegacySuggest", err)
	}
	return predictions(resp), nil
}

func predictions(resp maps.AutocompleteResponse) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, domain.Suggestion{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return out
}

// Details implements places.DetailsFetcher, asking only for the name, the
// formatted address and the location.
func (c *Client) Details(ctx context.Context, placeID, language string) (_ domain.Place, err error) {
	defer obs.Time(ctx, c.log, "googlemaps.Details")(&err)

	res, err := c.maps.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: or(language, c.cfg.Language),
		Region:   c.cfg.Region,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskGeometryLocation,
		},
	})
	if err != nil {
		return domain.Place{}, translate("Details", err)
	}

	place := domain.Place{Name: res.Name, FormattedAddress: res.FormattedAddress}
	if loc := res.Geometry.Location; loc != (maps.LatLng{}) {
		place.Lat = domain.Float(loc.Lat)
		place.Lng = domain.Float(loc.Lng)
	}
	return place, nil
}

var (
	_ places.Suggester      = (*Client)(nil)
	_ places.DetailsFetcher = (*Client)(nil)
	_ places.Availability   = (*Client)(nil)
	_ places.Availability   = legacy{}
)
