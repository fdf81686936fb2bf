package marketplace

import (
	"fmt"

	"github.com/jgivc/vsxsync/internal/entity"
)

const (
	ItemsURL = "https://marketplace.visualstudio.com/items"

	// The gallery asset path is a fixed convention, not something the
	// marketplace advertises. The constructed URL is a best-effort
	// guess and is never verified here.
	assetURLFormat = "https://%s.gallery.vsassets.io/_apis/public/gallery/publisher/%s/extension/%s/%s/assetbyname/Microsoft.VisualStudio.Services.VSIXPackage"

	VersionLatest = "latest"

	fileNameSeparator = "-"
	fileExt           = ".vsix"
)

// Asset describes a marketplace download target for one extension.
type Asset struct {
	MarketplaceURL    string
	DirectDownloadURL string
	FileName          string
	Version           string
}

// Derive builds marketplace URLs for the given id. It is pure
// construction, no network I/O. An empty version means the literal
// "latest" path segment; fileNameOverride replaces the default
// id-derived file name (used when a download is addressed by uuid).
func Derive(id entity.ExtensionID, version, fileNameOverride string) *Asset {
	ver := version
	if ver == "" {
		ver = VersionLatest
	}

	fileName := fileNameOverride
	if fileName == "" {
		fileName = VSIXFileName(id)
	}

	return &Asset{
		MarketplaceURL:    ItemsURL + "/" + id.String(),
		DirectDownloadURL: fmt.Sprintf(assetURLFormat, id.Publisher, id.Publisher, id.Name, ver),
		FileName:          fileName,
		Version:           version,
	}
}

// VSIXFileName is the default package file name for an id:
// "publisher.name" becomes "publisher-name.vsix".
func VSIXFileName(id entity.ExtensionID) string {
	return id.Publisher + fileNameSeparator + id.Name + fileExt
}
