// Package yandanshe implements providers.Source for yandanshe.com. It turns
// the host's generic filters into site addresses and reads the site's listing,
// detail and chapter pages into the providers domain model.
package yandanshe
