package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderInvolvementHelpers(t *testing.T) {
	now := time.Now().UTC()
	o := Order{ItemClaims: []ItemClaim{
		{ItemID: "A", RequestedQty: 1, ClaimStatus: ClaimUnclaimed},
		{ItemID: "B", RequestedQty: 2, ClaimStatus: ClaimUnclaimed},
	}}

	assert.False(t, o.AnyHeld())
	assert.False(t, o.Involves("s1"))

	o.Claim("A").Claim("s1", now)
	assert.True(t, o.AnyHeld())
	assert.True(t, o.Involves("s1"))
	assert.True(t, o.HasOpenClaims("s1"))
	assert.False(t, o.Involves("s2"))

	o.Claim("A").Fulfill(now)
	assert.False(t, o.HasOpenClaims("s1"))
	assert.True(t, o.Involves("s1"))
	assert.False(t, o.AllFulfilled())

	o.Claim("B").Claim("s2", now)
	o.Claim("B").Fulfill(now)
	assert.True(t, o.AllFulfilled())
}

func TestCloseForSeller(t *testing.T) {
	now := time.Now().UTC()
	o := Order{SellerStates: []SellerState{{SellerID: "s1", Status: SellerActive}}}

	o.CloseForSeller("s1", now)
	o.CloseForSeller("s2", now)

	assert.True(t, o.SelfClosed("s1"))
	assert.True(t, o.SelfClosed("s2"))
	assert.False(t, o.SelfClosed("s3"))
	assert.Len(t, o.SellerStates, 2)
}

func TestClaimReset(t *testing.T) {
	c := ItemClaim{ItemID: "A", RequestedQty: 3}
	c.Claim("s1", time.Now())

	assert.Equal(t, 3, c.ClaimedQuantity)
	assert.True(t, c.HeldBy("s1"))

	c.Reset()

	assert.Equal(t, ItemClaim{ItemID: "A", RequestedQty: 3, ClaimStatus: ClaimUnclaimed}, c)
}

func TestCloneIsDeep(t *testing.T) {
	o := Order{ItemClaims: []ItemClaim{{ItemID: "A", ClaimStatus: ClaimUnclaimed}}}

	c := o.Clone()
	c.ItemClaims[0].ClaimStatus = ClaimClaimed

	assert.Equal(t, ClaimUnclaimed, o.ItemClaims[0].ClaimStatus)
}
