package email

import (
	"fmt"
	"strings"
)

// OrderItem is one order line for mail rendering.
type OrderItem struct {
	Name     string
	Variant  string
	Quantity int
	Price    int
}

// BuildOrderBody renders the RTL order mail. items and customer are optional;
// the basic notification passes neither.
func BuildOrderBody(orderID string, total int, items []OrderItem, customer string) string {
	var itemsHTML strings.Builder
	if len(items) > 0 {
		itemsHTML.WriteString(`<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead><tr>
				<th style="padding: 10px; text-align: right; border-bottom: 2px solid #d4af9a;">المنتج</th>
				<th style="padding: 10px; text-align: center; border-bottom: 2px solid #d4af9a;">الكمية</th>
				<th style="padding: 10px; text-align: left; border-bottom: 2px solid #d4af9a;">السعر</th>
			</tr></thead><tbody>`)
		for _, item := range items {
			name := item.Name
			if item.Variant != "" {
				name = fmt.Sprintf("%s (%s)", name, item.Variant)
			}
			itemsHTML.WriteString(fmt.Sprintf(
				`<tr>
					<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
					<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
					<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: left;">%d د.ع</td>
				</tr>`,
				name, item.Quantity, item.Price*item.Quantity,
			))
		}
		itemsHTML.WriteString(`</tbody></table>`)
	}

	customerHTML := ""
	if customer != "" {
		customerHTML = fmt.Sprintf(
			`<div style="background: #f8f4f1; padding: 15px; border-radius: 5px; margin: 20px 0;">
				<p style="margin: 0; font-size: 14px; color: #666;">العميل</p>
				<p style="margin: 5px 0 0 0; font-weight: bold;">%s</p>
			</div>`, customer)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html dir="rtl" lang="ar">
<head><meta charset="UTF-8"></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; direction: rtl; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #d4af9a 0%%, #b88a6f 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">وصل طلب جديد</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f8f4f1; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">رقم الطلب</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>
		%s
		%s
		<p style="font-size: 18px; font-weight: bold; text-align: left;">المجموع: %d د.ع</p>
	</div>
</body>
</html>`, orderID, customerHTML, itemsHTML.String(), total)
}
