// Package models declares the row type shared by every pipeline layer and
// the column schema the persisted tables must conform to.
package models

import (
	"time"

	"github.com/angelcm/medallion-etl-go/internal/table"
)

// Column names, in persisted order.
const (
	ColCustomerID          = "customer_id"
	ColAge                 = "age"
	ColGender              = "gender"
	ColIncome              = "income"
	ColCampaignID          = "campaign_id"
	ColCampaignChannel     = "campaign_channel"
	ColCampaignType        = "campaign_type"
	ColAdSpend             = "ad_spend"
	ColImpressions         = "impressions"
	ColClicks              = "clicks"
	ColConversions         = "conversions"
	ColRevenue             = "revenue"
	ColWebsiteVisits       = "website_visits"
	ColTimeOnSite          = "time_on_site"
	ColPreviousPurchases   = "previous_purchases"
	ColDateReceived        = "date_received"
	ColAdvertisingPlatform = "advertising_platform"
	ColExtractionDate      = "extraction_date"
)

// MarketingRecord is one synthetic customer-campaign interaction event.
type MarketingRecord struct {
	CustomerID          string    `json:"customer_id"`
	Age                 int64     `json:"age"`
	Gender              string    `json:"gender"`
	Income              float64   `json:"income"`
	CampaignID          string    `json:"campaign_id"`
	CampaignChannel     string    `json:"campaign_channel"`
	CampaignType        string    `json:"campaign_type"`
	AdSpend             float64   `json:"ad_spend"`
	Impressions         int64     `json:"impressions"`
	Clicks              int64     `json:"clicks"`
	Conversions         int64     `json:"conversions"`
	Revenue             float64   `json:"revenue"`
	WebsiteVisits       int64     `json:"website_visits"`
	TimeOnSite          int64     `json:"time_on_site"`
	PreviousPurchases   int64     `json:"previous_purchases"`
	DateReceived        time.Time `json:"date_received"`
	AdvertisingPlatform string    `json:"advertising_platform"`
	ExtractionDate      time.Time `json:"extraction_date"`
}

// Schema returns the declared base columns in persisted order. Gold appends
// its KPI columns after these.
func Schema() []table.Column {
	return []table.Column{
		{Name: ColCustomerID, Kind: table.String},
		{Name: ColAge, Kind: table.Int},
		{Name: ColGender, Kind: table.String},
		{Name: ColIncome, Kind: table.Float},
		{Name: ColCampaignID, Kind: table.String},
		{Name: ColCampaignChannel, Kind: table.String},
		{Name: ColCampaignType, Kind: table.String},
		{Name: ColAdSpend, Kind: table.Float},
		{Name: ColImpressions, Kind: table.Int},
		{Name: ColClicks, Kind: table.Int},
		{Name: ColConversions, Kind: table.Int},
		{Name: ColRevenue, Kind: table.Float},
		{Name: ColWebsiteVisits, Kind: table.Int},
		{Name: ColTimeOnSite, Kind: table.Int},
		{Name: ColPreviousPurchases, Kind: table.Int},
		{Name: ColDateReceived, Kind: table.Time},
		{Name: ColAdvertisingPlatform, Kind: table.String},
		{Name: ColExtractionDate, Kind: table.Time},
	}
}

// Row converts the record to a table row in Schema order.
func (r MarketingRecord) Row() []any {
	return []any{
		r.CustomerID, r.Age, r.Gender, r.Income, r.CampaignID,
		r.CampaignChannel, r.CampaignType, r.AdSpend, r.Impressions,
		r.Clicks, r.Conversions, r.Revenue, r.WebsiteVisits, r.TimeOnSite,
		r.PreviousPurchases, r.DateReceived, r.AdvertisingPlatform,
		r.ExtractionDate,
	}
}
