package auth

import (
	"fmt"
	"strings"

	"sharefetch/pkg/cookie"
)

// ShowCookieExtractionGuide displays step-by-step instructions for
// capturing the browser cookie the downloader authenticates with
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🍪 BROWSER COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs the session cookies from a logged-in browser to")
	fmt.Println("fetch full-quality media. Follow these steps to capture them:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open the platform in your browser")
	fmt.Println("   - Go to https://www.douyin.com")
	fmt.Println("   - Log in with your account")
	fmt.Println("   - Make sure the feed loads while logged in")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools")
	fmt.Println("   • Chrome/Edge/Brave: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Firefox: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Safari: Enable Developer menu in Preferences, then Cmd+Option+I")
	fmt.Println()

	fmt.Println("📡 STEP 3: Go to the Network tab")
	fmt.Println("   - Click on the 'Network' tab in Developer Tools")
	fmt.Println("   - If it's empty, refresh the page (F5)")
	fmt.Println()

	fmt.Println("🍪 STEP 4: Copy the Cookie header")
	fmt.Println("   1. Look for any request to 'douyin.com'")
	fmt.Println("   2. Click on it")
	fmt.Println("   3. Go to 'Headers' section")
	fmt.Println("   4. Scroll to 'Request Headers'")
	fmt.Println("   5. Copy the full value of the 'Cookie:' line")
	fmt.Println()

	fmt.Println("🔑 STEP 5: These fields must be present for authenticated fetches:")
	for _, field := range cookie.RequiredFields() {
		fmt.Printf("   • %s\n", field)
	}
	fmt.Println()
	fmt.Println("   Missing non-critical fields are filled with a placeholder;")
	fmt.Println("   missing session fields mean low-quality or blocked fetches.")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Copy the ENTIRE header value, semicolons and all")
	fmt.Println("   • These cookies expire, so you may need to refresh them periodically")
	fmt.Println("   • Use a secondary account to keep your main account out of harm's way")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These cookies give FULL access to your account")
	fmt.Println("   • NEVER share them with anyone")
	fmt.Println("   • Store them securely (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Network tab → Refresh → Click any douyin.com request → Headers → Cookie")
	fmt.Println("   Copy the whole Cookie header value")
	fmt.Println("   Run with -cookie-help for detailed instructions")
}
