package catalog

import "github.com/pogoda34/weather-bot/internal/models"

// City is one entry of the fixed region catalog.
type City struct {
	Key   string
	Name  string
	Emoji string
	models.Location
}

// cities is ordered the way the menu renders it. Keys are stable slugs:
// they end up in callback payloads and in stored subscriptions, so they
// must never be renamed without a data migration.
var cities = []City{
	{Key: "volgograd", Name: "Волгоград", Emoji: "🏙", Location: models.Location{Lat: 48.708, Lon: 44.513}},
	{Key: "volzhsky", Name: "Волжский", Emoji: "⚡️", Location: models.Location{Lat: 48.818, Lon: 44.757}},
	{Key: "kamyshin", Name: "Камышин", Emoji: "🍉", Location: models.Location{Lat: 50.083, Lon: 45.4}},
	{Key: "mikhaylovka", Name: "Михайловка", Emoji: "🚜", Location: models.Location{Lat: 50.067, Lon: 43.233}},
	{Key: "uryupinsk", Name: "Урюпинск", Emoji: "🐐", Location: models.Location{Lat: 50.8, Lon: 42.0}},
	{Key: "frolovo", Name: "Фролово", Emoji: "🛢", Location: models.Location{Lat: 49.773, Lon: 43.655}},
	{Key: "kalach", Name: "Калач-на-Дону", Emoji: "⚓️", Location: models.Location{Lat: 48.691, Lon: 43.526}},
	{Key: "kotelnikovo", Name: "Котельниково", Emoji: "🚂", Location: models.Location{Lat: 47.583, Lon: 43.133}},
	{Key: "kotovo", Name: "Котово", Emoji: "🌲", Location: models.Location{Lat: 50.315, Lon: 44.807}},
	{Key: "surovikino", Name: "Суровикино", Emoji: "🌾", Location: models.Location{Lat: 48.608, Lon: 42.85}},
	{Key: "krasnoslobodsk", Name: "Краснослободск", Emoji: "🚤", Location: models.Location{Lat: 48.712, Lon: 44.572}},
	{Key: "zhirnovsk", Name: "Жирновск", Emoji: "🛢", Location: models.Location{Lat: 50.981, Lon: 44.767}},
	{Key: "novoanninsky", Name: "Новоаннинский", Emoji: "🌻", Location: models.Location{Lat: 50.533, Lon: 42.667}},
	{Key: "pallasovka", Name: "Палласовка", Emoji: "🐪", Location: models.Location{Lat: 50.045, Lon: 46.883}},
	{Key: "dubovka", Name: "Дубовка", Emoji: "🌳", Location: models.Location{Lat: 49.058, Lon: 44.829}},
	{Key: "nikolaevsk", Name: "Николаевск", Emoji: "🍉", Location: models.Location{Lat: 50.028, Lon: 45.46}},
	{Key: "leninsk", Name: "Ленинск", Emoji: "🍅", Location: models.Location{Lat: 48.705, Lon: 45.202}},
	{Key: "petrov-val", Name: "Петров Вал", Emoji: "🚂", Location: models.Location{Lat: 50.137, Lon: 45.211}},
	{Key: "serafimovich", Name: "Серафимович", Emoji: "⛪️", Location: models.Location{Lat: 49.583, Lon: 42.733}},
	{Key: "gorodishche", Name: "Городище", Emoji: "🛡", Location: models.Location{Lat: 48.805, Lon: 44.476}},
}

var byKey = func() map[string]City {
	m := make(map[string]City, len(cities))
	for _, c := range cities {
		m[c.Key] = c
	}
	return m
}()

// All returns the catalog in menu order.
func All() []City {
	return cities
}

// Get resolves a city by its slug key.
func Get(key string) (City, bool) {
	c, ok := byKey[key]
	return c, ok
}
