// Package extract turns rendered catalog pages into records. One extractor
// exists per page type: listing pages yield detail addresses plus the
// next-page signal, player and club pages yield full attribute records.
package extract
