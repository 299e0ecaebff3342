package selection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
)

func TestIDListAcceptsBothEncodings(t *testing.T) {
	var payload struct {
		A IDList `json:"a"`
		B IDList `json:"b"`
		C IDList `json:"c"`
	}
	raw := `{"a":"about, contact,,about","b":["hero"," team ","hero"],"c":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	require.Equal(t, IDList{"about", "contact"}, payload.A)
	require.Equal(t, IDList{"hero", "team"}, payload.B)
	require.Nil(t, payload.C)

	var bad IDList
	require.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestParseIDs(t *testing.T) {
	require.Nil(t, ParseIDs(""))
	require.Nil(t, ParseIDs(" , ,"))
	require.Equal(t, []string{"a", "b"}, ParseIDs("a,b,a"))
}

func TestInputSelectionWithoutBundle(t *testing.T) {
	in := Input{
		WebsiteType: "single",
		Subcategory: "business",
		Sections:    IDList{"about", "contact"},
		Hosting:     "none",
		Maintenance: "basic",
	}
	sel := in.Selection(bundle.Default())
	require.Equal(t, catalog.SinglePage, sel.Mode)
	require.Empty(t, sel.BundleID)
	require.Equal(t, []Entry{{ID: "about", Origin: FromUser}, {ID: "contact", Origin: FromUser}}, sel.Items[catalog.Section])
	require.True(t, sel.Hosting.Empty())
	require.Equal(t, Entry{ID: "basic", Origin: FromUser}, sel.Maintenance)
}

func TestInputSelectionKeepsBundleOriginForListedInclusions(t *testing.T) {
	in := Input{
		BundleID:    "business-professional",
		WebsiteType: "single",
		Sections:    IDList{"about", "gallery"},
		Hosting:     "standard",
		Maintenance: "premium",
		StoreAddon:  true,
	}
	sel := in.Selection(bundle.Default())
	origin, _ := sel.OriginOf(catalog.Section, "about")
	require.Equal(t, FromBundle, origin)
	origin, _ = sel.OriginOf(catalog.Section, "gallery")
	require.Equal(t, FromUser, origin)
	require.Equal(t, Entry{ID: "standard", Origin: FromBundle}, sel.Hosting)
	require.Equal(t, Entry{ID: "premium", Origin: FromUser}, sel.Maintenance)
	require.True(t, sel.Store)
	require.Equal(t, FromUser, sel.StoreOrigin)
}

func TestInputUnknownBundleIsNoBundle(t *testing.T) {
	sel := Input{BundleID: "retired-bundle", Sections: IDList{"about"}}.Selection(bundle.Default())
	require.Empty(t, sel.BundleID)
	require.Equal(t, []string{"about"}, sel.IDs(catalog.Section))
}

func TestStepsRoundTrip(t *testing.T) {
	r := bundle.Default()
	in := Input{
		BundleID:      "business-starter",
		WebsiteType:   "single",
		Category:      "professional",
		Subcategory:   "business",
		Sections:      IDList{"gallery"},
		Addons:        IDList{"analytics"},
		StoreAddon:    true,
		StoreOptions:  IDList{"subscriptions"},
		Domain:        "com",
		PaymentOption: PaymentMonthly,
		PromoCode:     "2026",
	}
	sel := in.Selection(r)

	steps := ToSteps(sel, func(category catalog.Category) (catalog.Money, catalog.Money) {
		if category == catalog.Section {
			return 125, 0
		}
		return 0, 0
	})
	require.Equal(t, "business-starter", steps[StepKey(StepBundle)].ID)
	require.EqualValues(t, 125, steps[StepKey(StepSections)].Cost)
	require.Equal(t, "yes", steps[StepKey(StepStore)].Value)
	require.ElementsMatch(t, []string{"hero", "about", "services", "contact"}, steps[StepKey(StepSections)].IncludedInBundle.IDs)

	raw, err := json.Marshal(steps)
	require.NoError(t, err)
	var decoded Steps
	require.NoError(t, json.Unmarshal(raw, &decoded))

	rebuilt := FromSteps(decoded)
	require.Equal(t, sel.Mode, rebuilt.Mode)
	require.Equal(t, sel.BundleID, rebuilt.BundleID)
	require.Equal(t, sel.Category, rebuilt.Category)
	require.Equal(t, sel.Subcategory, rebuilt.Subcategory)
	require.Equal(t, sel.PromoCode, rebuilt.PromoCode)
	require.Equal(t, sel.PaymentOption, rebuilt.PaymentOption)
	require.True(t, rebuilt.Store)
	require.ElementsMatch(t, sel.Items[catalog.Section], rebuilt.Items[catalog.Section])
	require.Equal(t, sel.Domain, rebuilt.Domain)
}

func TestFromStepsLegacyBooleanFlag(t *testing.T) {
	raw := `{
		"step1": {"step": 1, "name": "Website type", "value": "multi"},
		"step3": {"step": 3, "name": "Bundle", "id": "business-starter"},
		"step9": {"step": 9, "name": "Sections", "items": "hero,about", "cost": 175, "includedInBundle": true},
		"step10": {"step": 10, "name": "Add-ons", "items": ["seo-basic"], "cost": 150},
		"step11": {"step": 11, "name": "Hosting", "id": "basic", "monthly": 15, "includedInBundle": ["basic"]},
		"step12": {"step": 12, "name": "Maintenance", "value": "none"}
	}`
	var steps Steps
	require.NoError(t, json.Unmarshal([]byte(raw), &steps))
	sel := FromSteps(steps)

	require.Equal(t, catalog.MultiPage, sel.Mode)
	require.Equal(t, []Entry{{ID: "hero", Origin: FromBundle}, {ID: "about", Origin: FromBundle}}, sel.Items[catalog.Section])
	require.Equal(t, []Entry{{ID: "seo-basic", Origin: FromUser}}, sel.Items[catalog.Addon])
	require.Equal(t, Entry{ID: "basic", Origin: FromBundle}, sel.Hosting)
	require.True(t, sel.Maintenance.Empty())
}

func TestFromStepsIgnoresBundleFlagWithoutBundle(t *testing.T) {
	steps := Steps{
		StepKey(StepSections): {Step: StepSections, Items: IDList{"about"}, IncludedInBundle: BundleFlag{All: true}},
	}
	sel := FromSteps(steps)
	require.Equal(t, []Entry{{ID: "about", Origin: FromUser}}, sel.Items[catalog.Section])
}

func TestBundleFlagJSON(t *testing.T) {
	raw, err := json.Marshal(BundleFlag{})
	require.NoError(t, err)
	require.JSONEq(t, `false`, string(raw))
	raw, err = json.Marshal(BundleFlag{All: true})
	require.NoError(t, err)
	require.JSONEq(t, `true`, string(raw))
	raw, err = json.Marshal(BundleFlag{IDs: []string{"a"}})
	require.NoError(t, err)
	require.JSONEq(t, `["a"]`, string(raw))
}

func TestStepForCategory(t *testing.T) {
	require.Equal(t, StepSections, StepForCategory(catalog.Section))
	require.Equal(t, StepDomain, StepForCategory(catalog.DomainOption))
	require.Zero(t, StepForCategory(catalog.Category("pages")))
}
