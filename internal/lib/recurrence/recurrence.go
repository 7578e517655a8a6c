// Package recurrence содержит календарную арифметику для расчёта даты
// следующего платежа подписки по правилу повторения.
//
// Функция NextPaymentDate чистая и детерминированная: одинаковые входные
// данные всегда дают одинаковый результат, побочных эффектов нет.
package recurrence

import (
	"fmt"
	"time"
)

// Frequency задаёт единицу периода повторения подписки.
type Frequency string

const (
	// Daily — повторение каждые N дней.
	Daily Frequency = "DAILY"
	// Weekly — повторение каждые N недель.
	Weekly Frequency = "WEEKLY"
	// Monthly — повторение каждые N месяцев.
	Monthly Frequency = "MONTHLY"
	// Yearly — повторение каждые N лет.
	Yearly Frequency = "YEARLY"
)

// ParseFrequency преобразует строку в Frequency,
// возвращает ошибку для неизвестного значения.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Daily, Weekly, Monthly, Yearly:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("unknown repeat frequency: %q", s)
	}
}

// NextPaymentDate возвращает дату последнего платежа, сдвинутую на
// count единиц частоты freq.
//
// Для Daily и Weekly сдвиг точный (count и 7*count дней).
// Для Monthly и Yearly используется календарное сложение с политикой
// прижатия: если в целевом месяце нет такого дня, берётся последний
// день месяца (31 января + 1 месяц = 29 февраля 2024), переноса на
// следующий месяц не происходит. Политика влияет на даты списаний,
// поэтому зафиксирована тестами.
//
// Поле day_of_month правила повторения в расчёте не участвует,
// оно зарезервировано под будущую привязку к дню месяца.
func NextPaymentDate(lastPaymentDate time.Time, freq Frequency, count int) time.Time {
	switch freq {
	case Daily:
		return lastPaymentDate.AddDate(0, 0, count)
	case Weekly:
		return lastPaymentDate.AddDate(0, 0, 7*count)
	case Monthly:
		return addMonthsClamped(lastPaymentDate, count)
	case Yearly:
		return addMonthsClamped(lastPaymentDate, 12*count)
	default:
		return lastPaymentDate
	}
}

// addMonthsClamped прибавляет months месяцев, прижимая день к концу
// целевого месяца. time.AddDate здесь не подходит: 31 января + 1 месяц
// дал бы 2 или 3 марта.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)

	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// daysInMonth возвращает число дней в месяце: нулевой день следующего
// месяца равен последнему дню текущего.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
