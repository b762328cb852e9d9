// Package keypager provides keyset (cursor) and page-number pagination
// primitives for GORM and other result sources.
//
// Overview
//
// keypager implements two pagers:
//   - CursorPager: keyset pagination using comparison operators against the
//     boundary row of the previous page. It scales well on large datasets and
//     requires a deterministic ordering with at least one unique column.
//     Every page costs one query of limit+1 rows, the extra row tells whether
//     another page exists.
//   - NumberPager: classic LIMIT/OFFSET pagination by page number, for APIs
//     that need page numbers and a total count.
//
// Key concepts
//   - Orderings: defines multi-column ordering with explicit directions and
//     value kinds.
//   - CursorCodec: turns a row position into an opaque URL-safe token with a
//     keyed checksum, and back. Tampered or foreign tokens fail with
//     ErrInvalidCursor.
//   - Getters: maps model fields to values for building boundary tokens.
//   - Source: the query capability the pagers need. GORMSource and
//     SliceSource are provided.
//
// Usage
//
//	codec, _ := keypager.NewCursorCodec(secret)
//	page, err := keypager.NewCursorPager[User]().
//		WithCodec(codec).
//		WithLimit(20).
//		WithSort(keypager.Desc("created_at", keypager.KindTime), keypager.Asc("id", keypager.KindInt)).
//		WithGetters(keypager.Getters[User]{
//			"created_at": func(u User) any { return u.CreatedAt },
//			"id":         func(u User) any { return u.ID },
//		}).
//		WithToken(r.URL.Query().Get("startToken")).
//		Paginate(ctx, keypager.NewGORMSource[User](db.Model(&User{})))
package keypager
