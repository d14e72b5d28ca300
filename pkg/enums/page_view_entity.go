package enums

import "slices"

// PageViewEntityType names what a tracked page view points at.
type PageViewEntityType string

const (
	PageViewEntityProduct  PageViewEntityType = "product"
	PageViewEntityBrand    PageViewEntityType = "brand"
	PageViewEntityCampaign PageViewEntityType = "campaign"
)

var pageViewEntities = []PageViewEntityType{
	PageViewEntityProduct,
	PageViewEntityBrand,
	PageViewEntityCampaign,
}

func (e PageViewEntityType) IsValid() bool { return slices.Contains(pageViewEntities, e) }

// ParsePageViewEntityType accepts empty input: the view is not tied to an
// entity.
func ParsePageViewEntityType(value string) (PageViewEntityType, error) {
	if value == "" {
		return "", nil
	}
	return parseEnum("page view entity type", value, pageViewEntities)
}
