// Package testutil provides in-memory stand-ins for Supabase, Resend and the
// notifier so the cascades and handlers can be tested without network access.
package testutil
