package bundle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/webquote/internal/catalog"
)

func TestResolvePrefersModeSuffix(t *testing.T) {
	r := Default()

	sp, ok := r.Resolve("business-starter", catalog.SinglePage)
	require.True(t, ok)
	require.Equal(t, "business-starter-sp", sp.ID)
	require.EqualValues(t, 600, sp.Price)

	mp, ok := r.Resolve("Business-Starter ", catalog.MultiPage)
	require.True(t, ok)
	require.Equal(t, "business-starter-mp", mp.ID)
	require.EqualValues(t, 1100, mp.Price)
}

func TestResolveFallsBackToBareID(t *testing.T) {
	r := Default()
	b, ok := r.Resolve("portfolio-starter", catalog.MultiPage)
	require.True(t, ok)
	require.Equal(t, "portfolio-starter", b.ID)

	exact, ok := r.Resolve("budget-plus-mp", catalog.SinglePage)
	require.True(t, ok)
	require.EqualValues(t, 900, exact.Price)
}

func TestResolveUnknown(t *testing.T) {
	r := Default()
	_, ok := r.Resolve("mystery", catalog.SinglePage)
	require.False(t, ok)
	_, ok = r.Resolve("", catalog.SinglePage)
	require.False(t, ok)

	var nilResolver *Resolver
	_, ok = nilResolver.Resolve("business-starter", catalog.SinglePage)
	require.False(t, ok)
}

func TestIsIncluded(t *testing.T) {
	r := Default()
	b, _ := r.Resolve("business-professional", catalog.SinglePage)

	require.True(t, r.IsIncluded(b, catalog.Section, "about"))
	require.False(t, r.IsIncluded(b, catalog.Section, "gallery"))
	require.True(t, r.IsIncluded(b, catalog.BackendOption, "cms"))
	require.True(t, r.IsIncluded(b, catalog.HostingTier, "standard"))
	require.False(t, r.IsIncluded(b, catalog.HostingTier, "premium"))
	require.True(t, r.IsIncluded(b, catalog.MaintenanceTier, "basic"))
	require.False(t, r.IsIncluded(Bundle{}, catalog.Section, "about"))
}

func TestBudgetTierIncludesAllSections(t *testing.T) {
	r := Default()
	b, ok := r.Resolve("budget-starter", catalog.SinglePage)
	require.True(t, ok)
	require.True(t, b.IsBudget())

	for _, it := range catalog.Default().Items(catalog.Section) {
		require.True(t, r.IsIncluded(b, catalog.Section, it.ID), it.ID)
	}
	require.True(t, r.IsIncluded(b, catalog.Section, "not-in-catalog"))
	require.True(t, r.IsIncluded(b, catalog.Addon, "seo-basic"))
	require.False(t, r.IsIncluded(b, catalog.Addon, "analytics"))
	require.True(t, r.IsIncluded(b, catalog.DomainOption, catalog.FreeSubdomain))

	plus, _ := r.Resolve("budget-plus", catalog.MultiPage)
	require.True(t, r.IsIncluded(plus, catalog.Addon, "analytics"))
	require.True(t, r.IsIncluded(plus, catalog.BackendOption, "cms"))
}

func TestIsBudgetTier(t *testing.T) {
	r := Default()
	require.True(t, r.IsBudgetTier("budget-starter"))
	require.True(t, r.IsBudgetTier("budget-plus-mp"))
	require.True(t, r.IsBudgetTier(" BUDGET-STARTER-SP"))
	require.False(t, r.IsBudgetTier("business-starter"))
	require.False(t, r.IsBudgetTier(""))
}

func TestIsBudgetTierFollowsBundleTier(t *testing.T) {
	r := NewResolver([]Bundle{
		{ID: "lean-sp", BaseID: "lean", Mode: catalog.SinglePage, Tier: TierBudget},
		{ID: "listed-sp", BaseID: "listed", Mode: catalog.SinglePage, Tier: TierStarter},
	}, map[string]map[catalog.Category][]string{
		"listed": {catalog.Addon: {"seo-basic"}},
	})
	require.True(t, r.IsBudgetTier("lean"))
	require.False(t, r.IsBudgetTier("listed"))
	require.False(t, r.IsBudgetTier("missing"))
}

func TestBudgetFeatureListsMatchBudgetBundles(t *testing.T) {
	features := budgetFeatures()
	tiers := map[string]bool{}
	for _, b := range definitions() {
		if b.IsBudget() {
			tiers[b.BaseID] = true
			require.Contains(t, features, b.BaseID, b.ID)
		}
	}
	for base := range features {
		require.True(t, tiers[base], base)
	}
}

func TestInclusionsMergeBudgetFeatures(t *testing.T) {
	r := Default()
	b, _ := r.Resolve("budget-plus", catalog.SinglePage)
	inc := r.Inclusions(b)
	require.ElementsMatch(t, []string{"seo-basic", "analytics", "social-feed"}, inc[catalog.Addon])
	require.ElementsMatch(t, []string{"cms"}, inc[catalog.BackendOption])

	pro, _ := r.Resolve("business-professional", catalog.SinglePage)
	inc = r.Inclusions(pro)
	inc[catalog.Addon] = append(inc[catalog.Addon], "mutated")
	require.NotContains(t, pro.Included[catalog.Addon], "mutated")
}

func TestListByMode(t *testing.T) {
	r := Default()
	single := r.List(catalog.SinglePage)
	require.NotEmpty(t, single)
	require.Equal(t, "budget-starter-sp", single[0].ID)
	for i := 1; i < len(single); i++ {
		require.LessOrEqual(t, single[i-1].Price, single[i].Price)
		require.Equal(t, catalog.SinglePage, single[i].Mode)
	}
}

func TestBaseID(t *testing.T) {
	require.Equal(t, "budget-plus", BaseID("budget-plus-sp"))
	require.Equal(t, "budget-plus", BaseID("budget-plus-mp"))
	require.Equal(t, "portfolio-starter", BaseID("portfolio-starter"))
}
