// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }

	for _, k := range []string{"META_VERIFY_TOKEN", "META_WA_TOKEN", "META_PHONE_NUMBER_ID"} {
		if env(k) == "" {
			fail(k + " is empty (webhook cannot verify or reply).")
		} else {
			ok(k + " present")
		}
	}

	if env("ADMIN_PHONE") == "" {
		warn("ADMIN_PHONE empty; manager commands and admin alerts are disabled.")
	} else {
		ok("ADMIN_PHONE=" + env("ADMIN_PHONE"))
	}

	if staff := env("STAFF_PHONES"); staff == "" {
		warn("STAFF_PHONES empty; only the built-in default number is allowed.")
	} else if strings.Contains(staff, "+") {
		warn("STAFF_PHONES contains '+'; it is stripped, digits only are compared.")
	}

	if env("OPENAI_API_KEY") == "" && env("OPENAI_KEY") == "" {
		warn("OPENAI_API_KEY empty; free-form messages get the apology reply.")
	}
	if env("GOOGLE_SHEET_ID") == "" || env("GOOGLE_SERVICE_KEY") == "" {
		warn("GOOGLE_SHEET_ID/GOOGLE_SERVICE_KEY empty; rows are only logged.")
	}
	if env("META_APP_SECRET") == "" {
		warn("META_APP_SECRET empty; webhook signatures are not checked.")
	}
	if env("DATABASE_URL") == "" {
		warn("DATABASE_URL empty; no event journal.")
	} else {
		ok("DATABASE_URL present")
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
