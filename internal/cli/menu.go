package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// runMenu is the interactive driver for two-handset call testing. It expects
// exactly two configured phones and loops until the operator exits.
func runMenu(ctx context.Context, app *phoneApp, in io.Reader, out io.Writer) error {
	ids := sortedPhoneIDs(app.bridge)
	if len(ids) != 2 {
		return fmt.Errorf("interactive menu needs exactly 2 configured phones, have %d", len(ids))
	}

	a, _ := app.bridge.Phone(ids[0])
	b, _ := app.bridge.Phone(ids[1])

	banner := strings.Repeat("=", 60)
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, strings.Repeat("=", 19)+" PHONE CALL AUTOMATION "+strings.Repeat("=", 18))
	fmt.Fprintln(out, banner)
	fmt.Fprintf(out, "%s: %s @ %s\n", ids[0], a.MSISDN, a.Addr)
	fmt.Fprintf(out, "%s: %s @ %s\n", ids[1], b.MSISDN, b.Addr)
	fmt.Fprintln(out, banner)

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(out, `
--- MENU ---
1. Call from %[1]s to %[2]s
2. Call from %[2]s to %[1]s
3. Check call state (both phones)
4. Answer call on %[1]s
5. Answer call on %[2]s
6. End call on %[1]s
7. End call on %[2]s
8. List connected devices
9. Connect to both phones
10. Disconnect all devices
11. Restart adb server
0. Exit

Enter your choice: `, ids[0], ids[1])

		if !scanner.Scan() {
			return scanner.Err()
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			menuCall(ctx, app, scanner, out, ids[0], ids[1])
		case "2":
			menuCall(ctx, app, scanner, out, ids[1], ids[0])
		case "3":
			fmt.Fprintf(out, "%s call state: %s\n", ids[0], app.bridge.CallState(ctx, a.Addr))
			fmt.Fprintf(out, "%s call state: %s\n", ids[1], app.bridge.CallState(ctx, b.Addr))
		case "4":
			menuReport(out, app.bridge.Answer(ctx, a.Addr))
		case "5":
			menuReport(out, app.bridge.Answer(ctx, b.Addr))
		case "6":
			menuReport(out, app.bridge.End(ctx, a.Addr, true))
		case "7":
			menuReport(out, app.bridge.End(ctx, b.Addr, true))
		case "8":
			lines, err := app.bridge.Devices(ctx)
			if err != nil {
				menuReport(out, err)
				break
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
		case "9":
			menuReport(out, app.bridge.Connect(ctx, a.Addr))
			menuReport(out, app.bridge.Connect(ctx, b.Addr))
		case "10":
			app.bridge.DisconnectAll(ctx)
			fmt.Fprintln(out, "Disconnected all devices")
		case "11":
			menuReport(out, app.bridge.RestartServer(ctx))
		case "0":
			fmt.Fprintln(out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(out, "Invalid choice. Please try again.")
		}
	}
}

func menuCall(ctx context.Context, app *phoneApp, scanner *bufio.Scanner, out io.Writer, from, to string) {
	fmt.Fprint(out, "Enter call duration in seconds (or press Enter to skip auto-end): ")

	var hold time.Duration
	if scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			secs, err := time.ParseDuration(text + "s")
			if err != nil {
				fmt.Fprintln(out, "Invalid duration, skipping auto-end.")
			} else {
				hold = secs
			}
		}
	}

	menuReport(out, app.bridge.CallBetween(ctx, from, to, hold))
}

func menuReport(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintln(out, "Error:", err)
	}
}
