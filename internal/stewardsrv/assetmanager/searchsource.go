package assetmanager

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/search"
)

// Search sources acquire their own connection so index rebuilds are not
// tied to a request lifetime.

type productSearchSource struct{}

// ProductSearchSource returns the data product search index source.
func ProductSearchSource() search.Searchable {
	return productSearchSource{}
}

func (productSearchSource) SearchIndexItems(ctx context.Context) ([]search.IndexItem, error) {
	ctx, err := db.ConnCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer db.DB(ctx).Close(ctx)

	products, dbErr := db.DB(ctx).ListDataProducts(ctx)
	if dbErr != nil {
		return nil, dbErr
	}

	items := make([]search.IndexItem, 0, len(products))
	for _, p := range products {
		if p.ID == "" || p.Title == "" {
			log.Ctx(ctx).Warn().Str("id", p.ID).Msg("skipping data product with missing id or title in search index")
			continue
		}
		tags := []string{}
		unmarshalJSONB(p.Tags, &tags)
		items = append(items, search.IndexItem{
			ID:          "product::" + p.ID,
			Version:     p.Version,
			ProductType: p.ProductType,
			Type:        "data-product",
			FeatureID:   "data-products",
			Title:       p.Title,
			Description: p.Description,
			Link:        "/data-products/" + p.ID,
			Tags:        tags,
		})
	}
	return items, nil
}

type domainSearchSource struct{}

// DomainSearchSource returns the data domain search index source.
func DomainSearchSource() search.Searchable {
	return domainSearchSource{}
}

func (domainSearchSource) SearchIndexItems(ctx context.Context) ([]search.IndexItem, error) {
	ctx, err := db.ConnCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer db.DB(ctx).Close(ctx)

	domains, dbErr := db.DB(ctx).ListDataDomains(ctx)
	if dbErr != nil {
		return nil, dbErr
	}

	items := make([]search.IndexItem, 0, len(domains))
	for _, d := range domains {
		items = append(items, search.IndexItem{
			ID:          "domain::" + d.DomainID.String(),
			Type:        "data-domain",
			FeatureID:   "data-domains",
			Title:       d.Name,
			Description: d.Description,
			Link:        "/data-domains/" + d.DomainID.String(),
			Tags:        decodeTagList(ctx, d.Tags),
		})
	}
	return items, nil
}

type teamSearchSource struct{}

// TeamSearchSource returns the team search index source.
func TeamSearchSource() search.Searchable {
	return teamSearchSource{}
}

func (teamSearchSource) SearchIndexItems(ctx context.Context) ([]search.IndexItem, error) {
	ctx, err := db.ConnCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer db.DB(ctx).Close(ctx)

	teams, dbErr := db.DB(ctx).ListTeams(ctx)
	if dbErr != nil {
		return nil, dbErr
	}

	items := make([]search.IndexItem, 0, len(teams))
	for _, t := range teams {
		title := t.Title
		if title == "" {
			title = t.Name
		}
		tags := []string{}
		unmarshalJSONB(t.Tags, &tags)
		items = append(items, search.IndexItem{
			ID:          "team::" + t.TeamID.String(),
			Type:        "team",
			FeatureID:   "teams",
			Title:       title,
			Description: t.Description,
			Link:        "/teams/" + t.TeamID.String(),
			Tags:        tags,
		})
	}
	return items, nil
}
