// Package csvexport формирует CSV-выгрузки админки.
//
// Каждое поле заключается в двойные кавычки, кавычки внутри значения удваиваются,
// строки разделяются символом \n. Первая строка — фиксированный заголовок.
package csvexport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// UsersHeader — заголовок выгрузки пользователей.
var UsersHeader = []string{
	"email", "createdAt", "lastLoginAt", "emailVerified",
	"emailVerifiedOverride", "emailVerifiedOverrideAt", "emailVerifiedOverrideBy",
	"trialStartedAt", "trialSeconds",
	"license.active", "license.key", "license.expiresAt", "activeDeviceId",
}

// KeysHeader — заголовок выгрузки лицензионных ключей.
var KeysHeader = []string{
	"docId", "key", "months", "revoked", "usedBy", "usedEmail", "createdAt", "usedAt", "expiresAt",
}

// Write записывает header и rows в w.
func Write(w io.Writer, header []string, rows [][]string) error {
	const op = "csvexport.Write"

	bw := bufio.NewWriter(w)
	if err := writeRow(bw, header); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, row := range rows {
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := writeRow(bw, row); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func writeRow(w *bufio.Writer, row []string) error {
	for i, v := range row {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(v, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return nil
}

// UsersRows превращает профили в строки выгрузки в порядке UsersHeader.
func UsersRows(users []models.User) [][]string {
	rows := make([][]string, 0, len(users))
	for i := range users {
		u := &users[i]
		rows = append(rows, []string{
			u.Email,
			formatTime(&u.CreatedAt),
			formatTime(u.LastLoginAt),
			strconv.FormatBool(u.EmailVerified),
			strconv.FormatBool(u.EmailVerifiedOverride),
			formatTime(u.EmailVerifiedOverrideAt),
			u.EmailVerifiedOverrideBy,
			formatMillis(u.TrialStartedAt),
			strconv.Itoa(u.TrialSeconds),
			strconv.FormatBool(u.License.Active),
			u.License.Key,
			formatMillis(u.License.ExpiresAt),
			u.ActiveDeviceID,
		})
	}
	return rows
}

// KeysRows превращает ключи в строки выгрузки в порядке KeysHeader.
func KeysRows(keys []models.LicenseKey) [][]string {
	rows := make([][]string, 0, len(keys))
	for i := range keys {
		k := &keys[i]
		rows = append(rows, []string{
			k.Key,
			k.Key,
			strconv.Itoa(k.Months),
			strconv.FormatBool(k.Revoked),
			deref(k.UsedBy),
			deref(k.UsedEmail),
			formatTime(&k.CreatedAt),
			formatTime(k.UsedAt),
			formatMillis(k.ExpiresAt),
		})
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMillis(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
