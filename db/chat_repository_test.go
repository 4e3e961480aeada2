package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/marketplace/db"
	"github.com/techagentng/marketplace/db/dbtest"
	"github.com/techagentng/marketplace/models"
)

func TestGetOrCreateRoomIsIdempotent(t *testing.T) {
	g := dbtest.New(t)
	repo := db.NewChatRepo(g)
	seller := dbtest.CreateUser(t, g, "seller")
	buyer := dbtest.CreateUser(t, g, "buyer")
	listing := dbtest.CreateListing(t, g, seller, "Bike", models.ListingApproved)

	first, created, err := repo.GetOrCreateRoom(listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.GetOrCreateRoom(listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, g.DB.Model(&models.ChatRoom{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUniqueRoomPerListingAndBuyer(t *testing.T) {
	g := dbtest.New(t)
	seller := dbtest.CreateUser(t, g, "seller")
	buyer := dbtest.CreateUser(t, g, "buyer")
	listing := dbtest.CreateListing(t, g, seller, "Bike", models.ListingApproved)

	room := models.ChatRoom{ListingID: listing.ID, BuyerID: buyer.ID, SellerID: seller.ID}
	require.NoError(t, g.DB.Omit("Listing", "Buyer", "Seller").Create(&room).Error)

	dup := models.ChatRoom{ListingID: listing.ID, BuyerID: buyer.ID, SellerID: seller.ID}
	assert.Error(t, g.DB.Omit("Listing", "Buyer", "Seller").Create(&dup).Error)
}

func TestMessagesAreChronologicalAndMarkReadSkipsOwn(t *testing.T) {
	g := dbtest.New(t)
	repo := db.NewChatRepo(g)
	seller := dbtest.CreateUser(t, g, "seller")
	buyer := dbtest.CreateUser(t, g, "buyer")
	listing := dbtest.CreateListing(t, g, seller, "Bike", models.ListingApproved)
	room, _, err := repo.GetOrCreateRoom(listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	for i, m := range []struct {
		sender  uint
		content string
	}{{buyer.ID, "hello"}, {seller.ID, "hi"}, {buyer.ID, "still available?"}} {
		msg := &models.Message{ChatRoomID: room.ID, SenderID: m.sender, Content: m.content, CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.CreateMessage(msg))
		assert.NotZero(t, msg.ID)
		assert.Equal(t, m.sender, msg.Sender.ID)
	}

	detail, err := repo.FindRoomWithMessages(room.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 3)
	assert.Equal(t, []string{"hello", "hi", "still available?"},
		[]string{detail.Messages[0].Content, detail.Messages[1].Content, detail.Messages[2].Content})
	assert.Equal(t, "buyer", detail.Messages[0].Sender.Username)

	n, err := repo.MarkRead(room.ID, seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var msgs []models.Message
	require.NoError(t, g.DB.Where("chat_room_id = ?", room.ID).Find(&msgs).Error)
	for _, m := range msgs {
		if m.SenderID == buyer.ID {
			assert.True(t, m.IsRead, m.Content)
		} else {
			assert.False(t, m.IsRead, m.Content)
		}
	}
}

func TestListRoomsForUser(t *testing.T) {
	g := dbtest.New(t)
	repo := db.NewChatRepo(g)
	seller := dbtest.CreateUser(t, g, "seller")
	buyer := dbtest.CreateUser(t, g, "buyer")
	other := dbtest.CreateUser(t, g, "other")
	bike := dbtest.CreateListing(t, g, seller, "Bike", models.ListingApproved)
	desk := dbtest.CreateListing(t, g, seller, "Desk", models.ListingApproved)

	older, _, err := repo.GetOrCreateRoom(bike.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	newer, _, err := repo.GetOrCreateRoom(desk.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	_, _, err = repo.GetOrCreateRoom(desk.ID, other.ID, seller.ID)
	require.NoError(t, err)

	require.NoError(t, repo.CreateMessage(&models.Message{ChatRoomID: newer.ID, SenderID: seller.ID, Content: "desk is here"}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.CreateMessage(&models.Message{ChatRoomID: older.ID, SenderID: seller.ID, Content: "bike too"}))

	rooms, err := repo.ListRoomsForUser(buyer.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, older.ID, rooms[0].ID)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, "bike too", rooms[0].LastMessage.Content)
	assert.EqualValues(t, 1, rooms[0].UnreadCount)
	assert.Equal(t, "Bike", rooms[0].Listing.Title)

	sellerRooms, err := repo.ListRoomsForUser(seller.ID)
	require.NoError(t, err)
	assert.Len(t, sellerRooms, 3)
	for _, r := range sellerRooms {
		assert.Zero(t, r.UnreadCount)
	}
}

func TestListRoomsForUserSummarisesEachRoom(t *testing.T) {
	g := dbtest.New(t)
	repo := db.NewChatRepo(g)
	seller := dbtest.CreateUser(t, g, "seller")
	ann := dbtest.CreateUser(t, g, "ann")
	bob := dbtest.CreateUser(t, g, "bob")
	quiet := dbtest.CreateUser(t, g, "quiet")
	bike := dbtest.CreateListing(t, g, seller, "Bike", models.ListingApproved)

	annRoom, _, err := repo.GetOrCreateRoom(bike.ID, ann.ID, seller.ID)
	require.NoError(t, err)
	bobRoom, _, err := repo.GetOrCreateRoom(bike.ID, bob.ID, seller.ID)
	require.NoError(t, err)
	quietRoom, _, err := repo.GetOrCreateRoom(bike.ID, quiet.ID, seller.ID)
	require.NoError(t, err)

	send := func(roomID, senderID uint, content string) {
		require.NoError(t, repo.CreateMessage(&models.Message{ChatRoomID: roomID, SenderID: senderID, Content: content}))
	}
	send(annRoom.ID, ann.ID, "ann 1")
	send(annRoom.ID, ann.ID, "ann 2")
	send(annRoom.ID, seller.ID, "reply to ann")
	send(bobRoom.ID, bob.ID, "bob 1")
	send(annRoom.ID, ann.ID, "ann 3")

	rooms, err := repo.ListRoomsForUser(seller.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 3)

	byID := map[uint]models.ChatRoomSummary{}
	for _, r := range rooms {
		byID[r.ID] = r
	}

	require.NotNil(t, byID[annRoom.ID].LastMessage)
	assert.Equal(t, "ann 3", byID[annRoom.ID].LastMessage.Content)
	assert.Equal(t, "ann", byID[annRoom.ID].LastMessage.Sender.Username)
	assert.EqualValues(t, 3, byID[annRoom.ID].UnreadCount)

	require.NotNil(t, byID[bobRoom.ID].LastMessage)
	assert.Equal(t, "bob 1", byID[bobRoom.ID].LastMessage.Content)
	assert.EqualValues(t, 1, byID[bobRoom.ID].UnreadCount)

	assert.Nil(t, byID[quietRoom.ID].LastMessage)
	assert.Zero(t, byID[quietRoom.ID].UnreadCount)

	none, err := repo.ListRoomsForUser(dbtest.CreateUser(t, g, "nobody").ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessagesCascadeWithRoom(t *testing.T) {
	g := dbtest.New(t)
	repo := db.NewChatRepo(g)
	seller := dbtest.CreateUser(t, g, "seller")
	buyer := dbtest.CreateUser(t, g, "buyer")
	listing := dbtest.CreateListing(t, g, seller, "Bike", models.ListingApproved)
	room, _, err := repo.GetOrCreateRoom(listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateMessage(&models.Message{ChatRoomID: room.ID, SenderID: buyer.ID, Content: "hi"}))

	require.NoError(t, g.DB.Delete(&models.ChatRoom{}, room.ID).Error)

	var count int64
	require.NoError(t, g.DB.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}
