package domain

import "time"

// Notification payload builders. Pure mappings from a bid (plus optional
// contact info) to the flat key/value shape published on the message bus.

// BidEventPayload is the shape of won/lost notifications.
func BidEventPayload(bid *Bid, contacts *UserContacts) map[string]interface{} {
	payload := map[string]interface{}{
		"user_id":         bid.UserID,
		"bid_id":          bid.ID,
		"lot_id":          bid.LotID,
		"auction":         bid.AuctionSite.WireValue(),
		"bid_amount":      bid.BidAmount,
		"final_bid":       optionalInt(bid.AuctionResultBid),
		"vehicle_title":   optionalString(bid.Title),
		"vehicle_image":   firstImage(bid),
		"auction_date":    formatDate(bid.AuctionDate),
		"vin":             optionalString(bid.VIN),
		"bid_status":      bid.BidStatus.WireValue(),
		"payment_status":  bid.PaymentStatus.WireValue(),
		"account_blocked": bid.AccountBlocked,
		"email":           nil,
		"phone_number":    nil,
	}
	if contacts != nil {
		payload["email"] = optionalString(contacts.Email)
		payload["phone_number"] = optionalString(contacts.PhoneNumber)
	}
	return payload
}

// LossEventPayload adds the refunded amount when the loss released a funds
// hold; refundedAmount is nil on an idempotent re-entry.
func LossEventPayload(bid *Bid, contacts *UserContacts, refundedAmount *int64) map[string]interface{} {
	payload := BidEventPayload(bid, contacts)
	if refundedAmount != nil {
		payload["refunded_amount"] = *refundedAmount
	}
	return payload
}

// PlacementPayload is the shape of the new-bid-placed notification.
func PlacementPayload(bid *Bid, currentBid int64) map[string]interface{} {
	return map[string]interface{}{
		"user_id":       bid.UserID,
		"bid_amount":    bid.BidAmount,
		"auction_date":  formatDate(bid.AuctionDate),
		"vehicle_title": optionalString(bid.Title),
		"vehicle_image": firstImage(bid),
		"auction":       bid.AuctionSite.WireValue(),
		"lot_id":        bid.LotID,
		"current_bid":   currentBid,
	}
}

func firstImage(bid *Bid) interface{} {
	images := bid.ImageList()
	if len(images) == 0 {
		return nil
	}
	return images[0]
}

func formatDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func optionalString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func optionalInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
