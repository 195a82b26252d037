package mail

// reminderTemplate is the class-reminder body. It renders as a single-column
// card in most clients; the placeholder keys are replaced verbatim, so the
// values must already be HTML-safe.
const reminderTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Recordatorio de clase</title>
  <style type="text/css">
    body { margin: 0; padding: 0; background-color: #f4f4f4; font-family: Arial, Helvetica, sans-serif; }
    table { border-collapse: collapse; }
    .card { background-color: #ffffff; border-radius: 8px; }
    .btn { display: inline-block; padding: 12px 28px; background-color: #0b4ea2; color: #ffffff !important; text-decoration: none; border-radius: 4px; font-weight: bold; }
    .muted { color: #787878; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr>
      <td align="center" style="padding: 24px 12px;">
        <table role="presentation" width="600" cellpadding="0" cellspacing="0" class="card">
          <tr>
            <td style="padding: 32px 40px;">
              <h1 style="margin: 0 0 16px; font-size: 22px; color: #222222;">Recordatorio de clase</h1>
              <p style="margin: 0 0 12px; font-size: 15px; color: #444444;">
                Tienes clases de <strong>[**VAR_T**]</strong> a partir del <strong>[**VAR_F**]</strong>.
              </p>
              <p style="margin: 0 0 24px; font-size: 15px; color: #444444;">
                Ingresa a la sala virtual con el siguiente enlace:
              </p>
              <p style="margin: 0 0 24px;" align="center">
                <a class="btn" href="[**VAR_OC**]">Ingresar a la sala</a>
              </p>
              <p style="margin: 0 0 8px; font-size: 15px; color: #444444;">
                Clave de acceso: <strong>[**VAR_TD**]</strong>
              </p>
              <p class="muted" style="margin: 24px 0 0;">
                Si el enlace no funciona, copia y pega esta direcci&oacute;n en tu navegador:<br>
                [**VAR_OC**]
              </p>
            </td>
          </tr>
        </table>
        <p class="muted" style="margin: 16px 0 0;">Este es un mensaje autom&aacute;tico, por favor no respondas a este correo.</p>
      </td>
    </tr>
  </table>
</body>
</html>`
