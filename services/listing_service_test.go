package services

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/marketplace/db/dbtest"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/models"
)

func TestCreateListingIsApprovedWithDefaults(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")

	listing, err := f.listings.CreateListing(seller.ID, &models.CreateListingRequest{
		Title:       "Guitar",
		Description: "Six strings",
		Price:       decimal.NewFromInt(150),
		CategoryID:  1,
		Location:    "Lagos",
		Images:      []string{"https://img/guitar.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListingApproved, listing.Status)
	assert.Equal(t, models.DefaultCondition, listing.Condition)
	assert.Equal(t, "seller", listing.Seller.Username)
	require.Len(t, listing.Images, 1)
	assert.True(t, listing.Images[0].IsPrimary)

	_, err = f.listings.CreateListing(seller.ID, &models.CreateListingRequest{Title: "X", Price: decimal.NewFromInt(1), CategoryID: 999})
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "category_id")
}

func TestOnlySellerMutatesListing(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")
	other := dbtest.CreateUser(t, f.db, "other")
	listing := dbtest.CreateListing(t, f.db, seller, "Bike", models.ListingApproved)

	title := "Stolen"
	_, err := f.listings.UpdateListing(listing.ID, other.ID, &models.UpdateListingRequest{Title: &title})
	assert.Equal(t, http.StatusForbidden, errs.Status(err))
	assert.Equal(t, http.StatusForbidden, errs.Status(f.listings.DeleteListing(listing.ID, other.ID)))

	title = "Red bike"
	price := decimal.RequireFromString("25.5")
	updated, err := f.listings.UpdateListing(listing.ID, seller.ID, &models.UpdateListingRequest{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Red bike", updated.Title)
	assert.True(t, price.Equal(updated.Price), updated.Price.String())

	require.NoError(t, f.listings.DeleteListing(listing.ID, seller.ID))
	_, err = f.listings.GetListing(listing.ID, viewer(seller))
	assert.Equal(t, http.StatusNotFound, errs.Status(err))
}

func TestFavoriteToggleReflectsInIsFavorited(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")
	buyer := dbtest.CreateUser(t, f.db, "buyer")
	listing := dbtest.CreateListing(t, f.db, seller, "Bike", models.ListingApproved)

	got, err := f.listings.GetListing(listing.ID, viewer(buyer))
	require.NoError(t, err)
	assert.False(t, got.IsFavorited)

	created, err := f.listings.AddFavorite(buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, created)
	got, err = f.listings.GetListing(listing.ID, viewer(buyer))
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)

	page, err := f.listings.ListListings(models.ListingFilter{}, viewer(buyer))
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	anon, err := f.listings.GetListing(listing.ID, models.Viewer{})
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)

	require.NoError(t, f.listings.RemoveFavorite(buyer.ID, listing.ID))
	got, err = f.listings.GetListing(listing.ID, viewer(buyer))
	require.NoError(t, err)
	assert.False(t, got.IsFavorited)
}

func TestUpdateStatusNotifiesSeller(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")
	staff := dbtest.CreateStaff(t, f.db, "staff")
	listing := dbtest.CreateListing(t, f.db, seller, "Bike", models.ListingPending)

	_, err := f.listings.UpdateStatus(listing.ID, seller, models.ListingApproved)
	assert.Equal(t, http.StatusForbidden, errs.Status(err))

	updated, err := f.listings.UpdateStatus(listing.ID, staff, models.ListingRejected)
	require.NoError(t, err)
	assert.Equal(t, models.ListingRejected, updated.Status)

	_, err = f.listings.UpdateStatus(listing.ID, staff, models.ListingRejected)
	require.NoError(t, err)

	notes, err := f.notifications.ListNotifications(seller.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationRejection, notes[0].NotificationType)
}

func TestListListingsPagination(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")
	for _, title := range []string{"a", "b", "c"} {
		dbtest.CreateListing(t, f.db, seller, title, models.ListingApproved)
	}

	page, err := f.listings.ListListings(models.ListingFilter{Page: 2, PageSize: 2}, models.Viewer{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Results, 1)

	page, err = f.listings.ListListings(models.ListingFilter{Page: 5}, models.Viewer{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.PageSize)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestSimilarListings(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")
	base := dbtest.CreateListing(t, f.db, seller, "Base", models.ListingApproved)
	for i := 0; i < 8; i++ {
		dbtest.CreateListing(t, f.db, seller, "Other", models.ListingApproved)
	}
	dbtest.CreateListing(t, f.db, seller, "Hidden", models.ListingPending)

	similar, err := f.listings.SimilarListings(base.ID, models.Viewer{})
	require.NoError(t, err)
	assert.Len(t, similar, 6)
	for _, l := range similar {
		assert.NotEqual(t, base.ID, l.ID)
		assert.Equal(t, models.ListingApproved, l.Status)
	}
}

func TestListingPriceValidation(t *testing.T) {
	f := newFixture(t)
	seller := dbtest.CreateUser(t, f.db, "seller")
	listing := dbtest.CreateListing(t, f.db, seller, "Bike", models.ListingApproved)

	_, err := f.listings.CreateListing(seller.ID, &models.CreateListingRequest{
		Title: "Free", Description: "x", CategoryID: 1, Location: "Lagos",
	})
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "must be greater than 0", e.Fields["price"])

	fractional := decimal.RequireFromString("9.999")
	_, err = f.listings.UpdateListing(listing.ID, seller.ID, &models.UpdateListingRequest{Price: &fractional})
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "must have at most 2 decimal places", e.Fields["price"])

	cents := decimal.RequireFromString("0.10")
	updated, err := f.listings.UpdateListing(listing.ID, seller.ID, &models.UpdateListingRequest{Price: &cents})
	require.NoError(t, err)
	assert.Equal(t, "0.1", updated.Price.String())
}
