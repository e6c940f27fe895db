package views

import (
	"context"
	"slices"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
)

// Пути формы загрузки.
const (
	UploadFilesPath  = UploadPath + "/files"
	UploadSubmitPath = UploadPath + "/submit"
)

// UploadRemovePath возвращает путь удаления файла из формы по позиции.
func UploadRemovePath(index int) string {
	return UploadFilesPath + "/" + strconv.Itoa(index) + "/remove"
}

// UploadData — состояние формы загрузки для отрисовки.
type UploadData struct {
	Files    []string
	MaxFiles int
	Metadata model.UploadMetadata
}

// UploadPage — форма загрузки PDF-руководств.
// Файлы добавляются к форме порциями; отправка передаёт все выбранные файлы.
func UploadPage(layout LayoutData, data UploadData) templ.Component {
	return Layout(layout, component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<section class="panel"><h2>`)
		hw.text(i18n.T(ctx, "page.upload"))
		hw.raw(`</h2>`)

		hw.raw(`<h3>`)
		hw.text(i18n.Tf(ctx, "upload.selected", len(data.Files), data.MaxFiles))
		hw.raw(`</h3>`)
		if len(data.Files) == 0 {
			hw.raw(`<p>`)
			hw.text(i18n.T(ctx, "upload.none"))
			hw.raw(`</p>`)
		} else {
			hw.raw(`<ol class="files">`)
			for i, name := range data.Files {
				hw.raw(`<li>`)
				hw.text(name)
				hw.rawf(` <form method="post" action="%s" style="display:inline"><button class="link" type="submit">`, href(UploadRemovePath(i)))
				hw.text(i18n.T(ctx, "upload.remove"))
				hw.raw(`</button></form></li>`)
			}
			hw.raw(`</ol>`)
		}

		hw.rawf(`<form class="stacked" method="post" action="%s" enctype="multipart/form-data">`, href(UploadSubmitPath))
		hw.raw(`<label for="files">`)
		hw.text(i18n.T(ctx, "upload.files"))
		hw.raw(`</label><input id="files" type="file" name="files" multiple accept="application/pdf,.pdf">`)

		for _, field := range model.UploadFields {
			metadataInput(ctx, hw, field, data.Metadata[field], slices.Contains(console.RequiredUploadFields, field))
		}

		hw.rawf(`<p><button type="submit" formaction="%s">`, href(UploadFilesPath))
		hw.text(i18n.T(ctx, "upload.add"))
		hw.raw(`</button> <button class="primary" type="submit">`)
		hw.text(i18n.T(ctx, "upload.submit"))
		hw.raw(`</button></p></form></section>`)
	}))
}

// metadataInput — поле метаданных руководства.
func metadataInput(ctx context.Context, hw *htmlWriter, field, value string, required bool) {
	hw.rawf(`<label for="%s">`, attr(field))
	hw.text(i18n.T(ctx, "field."+field))
	if required {
		hw.raw(` <span class="required">`)
		hw.text(i18n.T(ctx, "upload.required"))
		hw.raw(`</span>`)
	}
	hw.rawf(`</label><input id="%s" type="text" name="%s" value="%s">`, attr(field), attr(field), attr(value))
}
