package texts

import "fmt"

type TextKey = string

const (
	// Availability
	AvailabilityNoLocation TextKey = "availability_no_location"
	AvailabilityAvailable  TextKey = "availability_available" // format: distance km
	AvailabilityOutside    TextKey = "availability_outside"   // format: radius, distance km
	AvailabilityCalcError  TextKey = "availability_calc_error"

	// Location acquisition
	LocationPermissionDenied TextKey = "location_permission_denied"
	LocationUnavailable      TextKey = "location_unavailable"
	LocationTimeout          TextKey = "location_timeout"
	LocationServiceError     TextKey = "location_service_error"
	LocationInProgress       TextKey = "location_in_progress"

	// Checkout guards
	BlockNoAddress   TextKey = "block_no_address"
	BlockMinOrder    TextKey = "block_min_order" // format: minimum amount
	BlockUnavailable TextKey = "block_unavailable"

	// Submission
	OrderPlaced          TextKey = "order_placed"
	OrderFailed          TextKey = "order_failed"
	OrderUnavailableShop TextKey = "order_unavailable_shops"
	PaymentLinkFailed    TextKey = "payment_link_failed"
	PaymentFailed        TextKey = "payment_failed"
	PaymentWaiting       TextKey = "payment_waiting"

	// Admin notification
	AdminOrderNotify TextKey = "admin_order_notify"

	// Customer receipt
	ReceiptSubject TextKey = "receipt_subject" // format: brand
	ReceiptBody    TextKey = "receipt_body"    // format: order ids, items, total, payment, address
	ReceiptLine    TextKey = "receipt_line"    // format: quantity, name, subtotal

	CurrencySymbol TextKey = "currency_symbol"
)

var MapText = map[TextKey]string{
	AvailabilityNoLocation: "Turn on location to check delivery availability",
	AvailabilityAvailable:  "Delivery available! You are %.2f km from our store",
	AvailabilityOutside:    "Sorry, we only deliver within %s km of the bus stand. You are %.2f km away",
	AvailabilityCalcError:  "Could not check delivery availability, please try again",

	LocationPermissionDenied: "Location permission denied. Enable it in settings to check delivery availability",
	LocationUnavailable:      "Location information is unavailable",
	LocationTimeout:          "Location request timed out, please try again",
	LocationServiceError:     "Could not get your current location",
	LocationInProgress:       "Getting your location...",

	BlockNoAddress:   "Please select a delivery address",
	BlockMinOrder:    "Minimum order amount is ₹%s",
	BlockUnavailable: "Delivery not available at your location",

	OrderPlaced:          "Order placed successfully!",
	OrderFailed:          "Failed to place order, please try again",
	OrderUnavailableShop: "Sorry, some shops cannot deliver to your location right now",
	PaymentLinkFailed:    "Could not start online payment, please try again",
	PaymentFailed:        "Payment failed. Try again or choose another payment method",
	PaymentWaiting:       "Complete the payment in the opened page",

	AdminOrderNotify: "🛒 New order %s\nTotal: ₹%s\nPayment: %s\nShip to: %s, %s, %s %s\nPhone: %s",

	ReceiptSubject: "Your %s order",
	ReceiptBody:    "Thank you for your order!\r\n\r\nOrder: %s\r\n%s\r\nTotal: ₹%s\r\nPayment: %s\r\nDelivering to: %s\r\n",
	ReceiptLine:    "%d x %s  ₹%s\r\n",

	CurrencySymbol: "₹",
}

func Get(key TextKey) string {
	return MapText[key]
}

func Format(key TextKey, args ...any) string {
	return fmt.Sprintf(MapText[key], args...)
}
