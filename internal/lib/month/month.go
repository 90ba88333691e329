// Package month содержит календарную арифметику по месяцам для сроков лицензий.
package month

import "time"

// AddMonths прибавляет к t указанное число календарных месяцев.
//
// Переполнение дня нормализуется вперёд: 31 января + 1 месяц = 2 или 3 марта,
// в зависимости от високосности года. Отрицательные значения вычитают месяцы.
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// OrDefault возвращает months, если оно положительно, иначе def.
func OrDefault(months, def int) int {
	if months <= 0 {
		return def
	}
	return months
}
