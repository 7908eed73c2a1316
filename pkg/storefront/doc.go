// Package storefront implements the catalog and content core of a small
// storefront-and-blog site: product lifecycle with customer reviews, blog
// posts, text search, admin accounts and the sitemap.
//
// Services are built with functional options and talk to three external
// collaborators through narrow interfaces: a Repository (document store),
// a MediaStore (image hosting) and a Mailer. Implementations live in
// subpackages (repo/memory, repo/mongo, repo/postgres, media/memory,
// media/fs, media/s3, mail).
//
// # Images
//
// Records keep the secure URL returned by the media store. The media
// identifier is recovered from that URL (see ImageIdentifier), so a record
// never needs a second field to locate its image. Image deletion is always
// best-effort: failures are logged and reported to the Observer, and never
// abort the surrounding write.
package storefront
